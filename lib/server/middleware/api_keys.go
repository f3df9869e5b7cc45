package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

const ADMIN_KEY_HEADER = "X-Admin-Key"

// WithKey requires the header to carry the key returned by real_key.
func WithKey(header string, real_key func() (string, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		api_key := c.Get(header)
		correct_key, err := real_key()
		if err != nil {
			slog.Error("Cannot read API key", "header", header, "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "cannot check API key",
			})
		}
		if api_key == "" || subtle.ConstantTimeCompare([]byte(api_key), []byte(correct_key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid API key",
			})
		}
		return c.Next()
	}
}
