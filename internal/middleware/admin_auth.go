package middleware

import (
	"crypto/subtle"
	"os"

	"github.com/gofiber/fiber/v2"
)

// RequireAdminKey guards administrative routes with a shared key supplied in
// the X-Admin-Key header. When ADMIN_API_KEY is unset the check is disabled,
// which keeps local development friction-free.
func RequireAdminKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := os.Getenv("ADMIN_API_KEY")
		if expected == "" {
			return c.Next()
		}

		provided := c.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing admin key",
			})
		}
		return c.Next()
	}
}
