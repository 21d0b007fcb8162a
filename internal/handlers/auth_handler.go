package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    NewValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.Credentials
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return validationErrorJSON(c, "Invalid request body", nil)
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorJSON(c, "Validation failed", fieldErrors(err))
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return validationErrorJSON(c, "Registration failed", map[string]string{
				"email": "is already registered",
			})
		}
		return internalErrorJSON(c, err)
	}

	log.Printf("Registered user %s", user.ID)
	return c.SendStatus(fiber.StatusOK)
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return validationErrorJSON(c, "Invalid request body", nil)
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorJSON(c, "Validation failed", fieldErrors(err))
	}

	resp, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return errorJSON(c, fiber.StatusUnauthorized, models.CodeUnauthorized, "Invalid email or password")
		}
		return internalErrorJSON(c, err)
	}

	return c.JSON(resp)
}
