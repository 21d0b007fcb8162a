package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.GetAllProducts)
	productRoutes.Get("/:id", h.GetProductByID)
	productRoutes.Post("/", h.CreateProduct)
	productRoutes.Put("/:id", h.UpdateProduct)
	productRoutes.Delete("/:id", h.DeleteProduct)
}

// GetAllProducts handles fetching all products.
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return internalErrorJSON(c, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// GetProductByID handles fetching a single product by ID.
func (h *ProductHandler) GetProductByID(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Product not found")
	}

	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return h.productError(c, err)
	}
	return c.JSON(product)
}

// CreateProduct handles creating a new product.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	req, ok, err := h.parse(c)
	if !ok {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return internalErrorJSON(c, err)
	}

	log.Printf("Created product %s", product.ID)
	c.Location("/api/products/" + product.ID.String())
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct handles updating an existing product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Product not found")
	}

	req, ok, err := h.parse(c)
	if !ok {
		return err
	}

	if _, err := h.service.UpdateProduct(c.UserContext(), id, req); err != nil {
		return h.productError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteProduct handles deleting a product.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFoundJSON(c, "Product not found")
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.productError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parse decodes and validates a product body. When ok is false the error
// response has already been written and err must be returned as is.
func (h *ProductHandler) parse(c *fiber.Ctx) (req models.ProductRequest, ok bool, err error) {
	if err := c.BodyParser(&req); err != nil {
		return req, false, validationErrorJSON(c, "Invalid request body", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return req, false, validationErrorJSON(c, "Validation failed", fieldErrors(err))
	}
	return req, true, nil
}

func (h *ProductHandler) productError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrProductNotFound) {
		return notFoundJSON(c, "Product not found")
	}
	return internalErrorJSON(c, err)
}

// pathID parses the :id route parameter.
func pathID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
