package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront/internal/cache"
	"storefront/internal/clients"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/webapp"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const webGatewayTimeout = 15 * time.Second

// closers collects cleanup functions and runs them in reverse order.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func openStore(cfg *config.Config, dsn string, closeWith *closers, model interface{}) (*gorm.DB, error) {
	if cfg.Database.Driver == database.DriverMemory {
		log.Printf("Using in-memory storage")
		return nil, nil
	}
	db, err := database.OpenAndMigrate(cfg.Database.Driver, dsn, model)
	if err != nil {
		return nil, err
	}
	closeWith.add(func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	})
	return db, nil
}

// buildGateway wires the API gateway. The limiter sweep stops with ctx.
func buildGateway(ctx context.Context, cfg *config.Config) (*fiber.App, closers, error) {
	var cleanup closers
	if err := cfg.ValidateGateway(); err != nil {
		return nil, cleanup, fmt.Errorf("invalid gateway configuration: %w", err)
	}

	db, err := openStore(cfg, cfg.Database.GatewayDSN, &cleanup, &models.User{})
	if err != nil {
		return nil, cleanup, err
	}
	var userRepo repositories.UserRepository = repositories.NewMemoryUserRepository()
	if db != nil {
		userRepo = repositories.NewGORMUserRepository(db)
	}

	authService := services.NewAuthService(userRepo, services.TokenConfig{
		Secret:   cfg.JWT.Key,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Expiry:   cfg.JWT.Expiry,
	})

	limiter := ratelimit.NewFixedWindow(cfg.RateLimit.PermitLimit, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	app := handlers.NewApp("storefront-gateway", true)
	handlers.MountGateway(app, handlers.GatewayOptions{
		Auth:           authService,
		Limiter:        limiter,
		OrdersURL:      cfg.OrdersURL,
		ProductsURL:    cfg.ProductsURL,
		InternalSecret: cfg.InternalSecret,
	})
	log.Printf("Gateway proxies /api/orders to %s and /api/products to %s", cfg.OrdersURL, cfg.ProductsURL)
	return app, cleanup, nil
}

// buildProducts wires the product service, with a Redis cache when configured.
func buildProducts(cfg *config.Config) (*fiber.App, closers, error) {
	var cleanup closers
	if err := cfg.ValidateDownstream(); err != nil {
		return nil, cleanup, fmt.Errorf("invalid products configuration: %w", err)
	}

	db, err := openStore(cfg, cfg.Database.ProductsDSN, &cleanup, &models.Product{})
	if err != nil {
		return nil, cleanup, err
	}
	var productRepo repositories.ProductRepository = repositories.NewMemoryProductRepository()
	if db != nil {
		productRepo = repositories.NewGORMProductRepository(db)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(cfg.Redis)
		if err != nil {
			cleanup.Close()
			return nil, nil, err
		}
		cleanup.add(func() { _ = rdb.Close() })
		productRepo = cache.NewCachedProductRepository(productRepo, rdb)
	}

	app := handlers.NewApp("storefront-products", true)
	handlers.MountProducts(app, services.NewProductService(productRepo), cfg.InternalSecret, cfg.InternalSecretEnforce)
	return app, cleanup, nil
}

// buildOrders wires the order service. Events are published only when
// RABBITMQ_URL is set.
func buildOrders(cfg *config.Config) (*fiber.App, closers, error) {
	var cleanup closers
	if err := cfg.ValidateOrders(); err != nil {
		return nil, cleanup, fmt.Errorf("invalid orders configuration: %w", err)
	}
	if err := cfg.ValidateDownstream(); err != nil {
		return nil, cleanup, fmt.Errorf("invalid orders configuration: %w", err)
	}

	db, err := openStore(cfg, cfg.Database.OrdersDSN, &cleanup, &models.Order{})
	if err != nil {
		return nil, cleanup, err
	}
	var orderRepo repositories.OrderRepository = repositories.NewMemoryOrderRepository()
	if db != nil {
		orderRepo = repositories.NewGORMOrderRepository(db)
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			cleanup.Close()
			return nil, nil, err
		}
		cleanup.add(func() {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		})
		publisher = mqClient
	} else {
		log.Printf("RABBITMQ_URL not set, order events are disabled")
	}

	prices := clients.NewProductPriceClient(cfg.ProductsURL, cfg.InternalSecret, cfg.PriceLookupTimeout)
	orderService := services.NewOrderService(orderRepo, prices, publisher)

	app := handlers.NewApp("storefront-orders", true)
	handlers.MountOrders(app, orderService, cfg.InternalSecret, cfg.InternalSecretEnforce)
	return app, cleanup, nil
}

func buildWeb(cfg *config.Config) (*fiber.App, error) {
	if err := cfg.ValidateWeb(); err != nil {
		return nil, fmt.Errorf("invalid web configuration: %w", err)
	}
	return webapp.NewApp(webapp.NewGatewayClient(cfg.GatewayURL, webGatewayTimeout), true), nil
}
