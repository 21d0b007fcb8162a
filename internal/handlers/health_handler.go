package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health reports liveness. It never touches downstream dependencies.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
