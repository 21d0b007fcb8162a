package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func validationErrorJSON(c *fiber.Ctx, message string, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   models.CodeValidationError,
		Message: message,
		Errors:  fields,
	})
}

func notFoundJSON(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, models.CodeNotFound, message)
}

func internalErrorJSON(c *fiber.Ctx, err error) error {
	log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
	return errorJSON(c, fiber.StatusInternalServerError, models.CodeInternalError, "An unexpected error occurred")
}

// ErrorHandler is the fiber.Config ErrorHandler of every storefront API.
// It renders errors that escape handlers in the common error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := models.CodeInternalError
		switch fiberErr.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
			code = models.CodeValidationError
		case fiber.StatusUnauthorized:
			code = models.CodeUnauthorized
		case fiber.StatusTooManyRequests:
			code = models.CodeRateLimited
		case fiber.StatusBadGateway, fiber.StatusServiceUnavailable, fiber.StatusGatewayTimeout:
			code = models.CodeUnavailable
		}
		return errorJSON(c, fiberErr.Code, code, fiberErr.Message)
	}
	return internalErrorJSON(c, err)
}
