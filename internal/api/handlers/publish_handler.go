package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
	"github.com/maheshrc27/postloop/internal/service"
	"github.com/maheshrc27/postloop/internal/status"
	"github.com/maheshrc27/postloop/internal/transfer"
)

type PublishHandler struct {
	ar repository.AccountRepository
	ps service.PublishService
	tr *status.Tracker
}

func NewPublishHandler(ar repository.AccountRepository, ps service.PublishService, tr *status.Tracker) *PublishHandler {
	return &PublishHandler{ar: ar, ps: ps, tr: tr}
}

// RunNow launches one manual (sequential) publish run and returns
// immediately. The outcome is visible only through the status endpoint.
func (h *PublishHandler) RunNow(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("idx")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account index"})
	}

	acct, err := accountByIndex(c.Context(), h.ar, idx)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	go func(a *models.Account) {
		_ = h.ps.RunAccount(context.Background(), a, models.RunModeManual)
	}(acct)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}

// Publish accepts an operator-picked selection from the preview view.
// Required-field validation fails synchronously; everything after the 202
// surfaces through the status tracker.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("idx")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account index"})
	}

	acct, err := accountByIndex(c.Context(), h.ar, idx)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse payload"})
	}

	if acct.AccountType == models.AccountTypeReel && req.Video == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'video'"})
	}
	if acct.AccountType == models.AccountTypeCarousel && len(req.Images) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'images'"})
	}

	go func(a *models.Account, r transfer.PublishRequest) {
		_ = h.ps.PublishSelected(context.Background(), a, &r)
	}(acct, req)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "accepted",
		"message": "Publishing started in background. Poll the status endpoint for the result.",
	})
}

func (h *PublishHandler) Status(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("idx")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account index"})
	}

	acct, err := accountByIndex(c.Context(), h.ar, idx)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(h.tr.Get(acct.StatePrefix))
}

func (h *PublishHandler) AllStatus(c *fiber.Ctx) error {
	accounts, err := h.ar.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to list accounts"})
	}

	statuses := make([]models.PublishStatus, 0, len(accounts))
	for _, acct := range accounts {
		statuses = append(statuses, h.tr.Get(acct.StatePrefix))
	}
	return c.Status(fiber.StatusOK).JSON(statuses)
}
