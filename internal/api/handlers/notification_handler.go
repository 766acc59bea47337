package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloop/internal/notify"
)

type NotificationHandler struct {
	nt *notify.Telegram
}

func NewNotificationHandler(nt *notify.Telegram) *NotificationHandler {
	return &NotificationHandler{nt: nt}
}

func (h *NotificationHandler) Status(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"enabled": h.nt.Enabled()})
}

func (h *NotificationHandler) Test(c *fiber.Ctx) error {
	if !h.nt.Enabled() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Notifications are not configured"})
	}

	if ok := h.nt.NotifyCustom("Test notification. If you can read this, delivery works."); !ok {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Delivery failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "sent"})
}
