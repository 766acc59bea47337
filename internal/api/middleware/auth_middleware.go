package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware accepts either the admin API key (query param, for
// curl/automation) or the dashboard's JWT session cookie.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		apiKey := c.Query("api_key")

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing keys or cookies",
			})
		}

		if apiKey != "" {
			if m.cfg.AdminAPIKey == "" ||
				subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.cfg.AdminAPIKey)) != 1 {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid api key",
				})
			}
			return c.Next()
		}

		if _, err := utils.ValidateToken(m.cfg.SecretKey, tokenString); err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1, // Delete cookie
			})

			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		return c.Next()
	}
}
