package handlers

import (
	"errors"
	"log"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders. Every route runs behind
// middleware.EmployeeID and only ever sees the caller's own orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.EmployeeID())
	orderRoutes.Get("/", h.ListOrders)
	orderRoutes.Get("/:id", h.GetOrderByID)
	orderRoutes.Post("/", h.CreateOrder)
	orderRoutes.Put("/:id", h.UpdateOrder)
	orderRoutes.Delete("/:id", h.DeleteOrder)
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	owner, _ := middleware.EmployeeIDFrom(c)

	orders, err := h.service.ListForOwner(c.UserContext(), owner)
	if err != nil {
		return internalErrorJSON(c, err)
	}
	return c.JSON(orders)
}

// GetOrderByID handles fetching a single order by ID.
func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	owner, _ := middleware.EmployeeIDFrom(c)
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Order not found")
	}

	order, err := h.service.GetOrder(c.UserContext(), id, owner)
	if err != nil {
		return h.orderError(c, err)
	}
	return c.JSON(order)
}

// CreateOrder prices and stores a new order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	owner, _ := middleware.EmployeeIDFrom(c)

	req, ok, err := h.parse(c)
	if !ok {
		return err
	}

	order, err := h.service.CreateOrder(c.UserContext(), req, owner)
	if err != nil {
		return h.orderError(c, err)
	}

	log.Printf("Created order %s for owner %s, total %s", order.ID, owner, order.Total)
	return c.Status(fiber.StatusOK).JSON(order)
}

// UpdateOrder re-prices and overwrites an order.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	owner, _ := middleware.EmployeeIDFrom(c)
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Order not found")
	}

	req, ok, err := h.parse(c)
	if !ok {
		return err
	}

	if _, err := h.service.UpdateOrder(c.UserContext(), id, req, owner); err != nil {
		return h.orderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteOrder removes an order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	owner, _ := middleware.EmployeeIDFrom(c)
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Order not found")
	}

	if err := h.service.DeleteOrder(c.UserContext(), id, owner); err != nil {
		return h.orderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderHandler) parse(c *fiber.Ctx) (req models.OrderRequest, ok bool, err error) {
	if err := c.BodyParser(&req); err != nil {
		return req, false, validationErrorJSON(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return req, false, validationErrorJSON(c, "Validation failed", fieldErrors(err))
	}
	return req, true, nil
}

func (h *OrderHandler) orderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return notFoundJSON(c, "Order not found")
	case errors.Is(err, services.ErrProductUnresolved):
		return errorJSON(c, fiber.StatusBadRequest, models.CodeProductUnresolved, "The product price could not be resolved")
	}
	return internalErrorJSON(c, err)
}
