package middleware

import (
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderEmployeeID carries the authenticated caller's id from the gateway
// to the downstream services.
const HeaderEmployeeID = "X-Employee-Id"

const localEmployeeID = "employee_id"

// EmployeeID requires a UUID in the X-Employee-Id header and stores it in the context.
func EmployeeID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderEmployeeID)
		if raw == "" {
			return employeeIDError(c, "X-Employee-Id header is required")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return employeeIDError(c, "X-Employee-Id header must be a UUID")
		}
		c.Locals(localEmployeeID, id)
		return c.Next()
	}
}

// EmployeeIDFrom returns the id stored by EmployeeID.
func EmployeeIDFrom(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localEmployeeID).(uuid.UUID)
	return id, ok
}

func employeeIDError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   models.CodeValidationError,
		Message: message,
		Errors:  map[string]string{HeaderEmployeeID: message},
	})
}
