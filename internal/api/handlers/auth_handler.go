package handlers

import (
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/pkg/utils"
)

const sessionDuration = 24 * time.Hour

type AuthHandler struct {
	cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Login exchanges the admin password for a session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse payload"})
	}

	if h.cfg.AdminAPIKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminAPIKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid password"})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "admin", sessionDuration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to create session"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
