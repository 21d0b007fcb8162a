package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings of every storefront server. Each command reads
// the part it needs and validates it with the matching Validate* method.
type Config struct {
	GatewayAddr  string
	ProductsAddr string
	OrdersAddr   string
	WebAddr      string

	JWT       JWTConfig
	RateLimit RateLimitConfig

	OrdersURL   string
	ProductsURL string
	GatewayURL  string

	InternalSecret        string
	InternalSecretEnforce bool
	PriceLookupTimeout    time.Duration

	Database    DatabaseConfig
	RabbitMQURL string
	Redis       RedisConfig
}

type JWTConfig struct {
	Key      string
	Issuer   string
	Audience string
	Expiry   time.Duration
}

type RateLimitConfig struct {
	PermitLimit int
	Window      time.Duration
}

type DatabaseConfig struct {
	Driver      string
	GatewayDSN  string
	ProductsDSN string
	OrdersDSN   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from an optional .env file, an optional config
// file and the environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	if _, err := os.Lstat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		log.Printf("Using config file %s", v.ConfigFileUsed())
	}

	return FromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GATEWAY_ADDR", ":8080")
	v.SetDefault("PRODUCTS_ADDR", ":8081")
	v.SetDefault("ORDERS_ADDR", ":8082")
	v.SetDefault("WEB_ADDR", ":8090")

	v.SetDefault("JWT_ISSUER", "storefront-gateway")
	v.SetDefault("JWT_AUDIENCE", "storefront")
	v.SetDefault("JWT_EXPIRY_MINUTES", 60)

	v.SetDefault("RATE_LIMIT_PERMIT_LIMIT", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	v.SetDefault("ORDERS_URL", "http://localhost:8082")
	v.SetDefault("PRODUCTS_URL", "http://localhost:8081")
	v.SetDefault("GATEWAY_URL", "http://localhost:8080")

	v.SetDefault("INTERNAL_SECRET_ENFORCE", false)
	v.SetDefault("PRICE_LOOKUP_TIMEOUT_SECONDS", 10)

	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("GATEWAY_DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront_identity port=5432 sslmode=disable")
	v.SetDefault("PRODUCTS_DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront_products port=5432 sslmode=disable")
	v.SetDefault("ORDERS_DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront_orders port=5432 sslmode=disable")

	v.SetDefault("REDIS_DB", 0)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		GatewayAddr:  v.GetString("GATEWAY_ADDR"),
		ProductsAddr: v.GetString("PRODUCTS_ADDR"),
		OrdersAddr:   v.GetString("ORDERS_ADDR"),
		WebAddr:      v.GetString("WEB_ADDR"),
		JWT: JWTConfig{
			Key:      v.GetString("JWT_KEY"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			Expiry:   time.Duration(v.GetInt("JWT_EXPIRY_MINUTES")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PermitLimit: v.GetInt("RATE_LIMIT_PERMIT_LIMIT"),
			Window:      time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		OrdersURL:             strings.TrimRight(v.GetString("ORDERS_URL"), "/"),
		ProductsURL:           strings.TrimRight(v.GetString("PRODUCTS_URL"), "/"),
		GatewayURL:            strings.TrimRight(v.GetString("GATEWAY_URL"), "/"),
		InternalSecret:        v.GetString("INTERNAL_SECRET"),
		InternalSecretEnforce: v.GetBool("INTERNAL_SECRET_ENFORCE"),
		PriceLookupTimeout:    time.Duration(v.GetInt("PRICE_LOOKUP_TIMEOUT_SECONDS")) * time.Second,
		Database: DatabaseConfig{
			Driver:      v.GetString("DATABASE_DRIVER"),
			GatewayDSN:  v.GetString("GATEWAY_DATABASE_DSN"),
			ProductsDSN: v.GetString("PRODUCTS_DATABASE_DSN"),
			OrdersDSN:   v.GetString("ORDERS_DATABASE_DSN"),
		},
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}
}

// ValidateGateway checks the settings the gateway cannot start without.
func (c *Config) ValidateGateway() error {
	var errs []error
	if len(c.JWT.Key) < 32 {
		errs = append(errs, errors.New("JWT_KEY must be at least 32 bytes"))
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		errs = append(errs, errors.New("JWT_ISSUER and JWT_AUDIENCE are required"))
	}
	if c.JWT.Expiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_MINUTES must be positive"))
	}
	if c.RateLimit.PermitLimit <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PERMIT_LIMIT and RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	if c.OrdersURL == "" || c.ProductsURL == "" {
		errs = append(errs, errors.New("ORDERS_URL and PRODUCTS_URL are required"))
	}
	return errors.Join(errs...)
}

// ValidateOrders checks the settings of the order service.
func (c *Config) ValidateOrders() error {
	if c.ProductsURL == "" {
		return errors.New("PRODUCTS_URL is required")
	}
	if c.PriceLookupTimeout <= 0 {
		return errors.New("PRICE_LOOKUP_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// ValidateWeb checks the settings of the frontend.
func (c *Config) ValidateWeb() error {
	if c.GatewayURL == "" {
		return errors.New("GATEWAY_URL is required")
	}
	return nil
}

// ValidateDownstream checks the settings shared by the products and orders services.
func (c *Config) ValidateDownstream() error {
	if c.InternalSecretEnforce && c.InternalSecret == "" {
		return errors.New("INTERNAL_SECRET is required when INTERNAL_SECRET_ENFORCE is true")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
		return nil
	}
	return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
}
