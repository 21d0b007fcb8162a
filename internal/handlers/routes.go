package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/ratelimit"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// NewApp creates a Fiber app with the shared error handler and, when
// accessLog is set, the request logger.
func NewApp(name string, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	if accessLog {
		app.Use(logger.New())
	}
	return app
}

// GatewayOptions wires the gateway routes.
type GatewayOptions struct {
	Auth           *services.AuthService
	Limiter        *ratelimit.FixedWindow
	OrdersURL      string
	ProductsURL    string
	InternalSecret string
}

// MountGateway registers health, authentication and the authenticated
// reverse proxy routes. Every route is rate limited.
func MountGateway(app *fiber.App, opts GatewayOptions) {
	app.Use(middleware.RateLimit(opts.Limiter, nil))

	app.Get("/health", Health)
	NewAuthHandler(opts.Auth).RegisterRoutes(app)

	api := app.Group("/api", middleware.AuthRequired(opts.Auth))
	NewProxyHandler(opts.OrdersURL, opts.InternalSecret).RegisterRoutes(api, "/orders")
	NewProxyHandler(opts.ProductsURL, opts.InternalSecret).RegisterRoutes(api, "/products")
}

// MountProducts registers the product service routes.
func MountProducts(app *fiber.App, service *services.ProductService, secret string, enforceSecret bool) {
	app.Use(middleware.InternalSecret(secret, enforceSecret))
	app.Get("/health", Health)
	NewProductHandler(service).RegisterRoutes(app.Group("/api"))
}

// MountOrders registers the order service routes.
func MountOrders(app *fiber.App, service *services.OrderService, secret string, enforceSecret bool) {
	app.Use(middleware.InternalSecret(secret, enforceSecret))
	app.Get("/health", Health)
	NewOrderHandler(service).RegisterRoutes(app.Group("/api"))
}
