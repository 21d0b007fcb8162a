package middleware

import (
	"crypto/subtle"
	"log"

	"storefront/internal/clients"
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
)

// InternalSecret checks the shared gateway secret on every request except
// /health. When enforce is false the header is only logged when it is wrong.
func InternalSecret(secret string, enforce bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		got := c.Get(clients.InternalSecretHeader)
		if secret != "" && subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1 {
			return c.Next()
		}

		if !enforce {
			if got != "" {
				log.Printf("Request to %s carried a mismatched internal secret", c.Path())
			}
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error:   models.CodeUnauthorized,
			Message: "Missing or invalid internal secret",
		})
	}
}
