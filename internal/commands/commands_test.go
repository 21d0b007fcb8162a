package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(new(bytes.Buffer))
	os.Exit(m.Run())
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	v.Set("DATABASE_DRIVER", database.DriverMemory)
	v.Set("JWT_KEY", "commands_test_key_that_is_long_enough!")
	v.Set("JWT_ISSUER", "storefront-gateway")
	v.Set("JWT_AUDIENCE", "storefront")
	v.Set("JWT_EXPIRY_MINUTES", 60)
	v.Set("RATE_LIMIT_PERMIT_LIMIT", 100)
	v.Set("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.Set("ORDERS_URL", "http://127.0.0.1:1")
	v.Set("PRODUCTS_URL", "http://127.0.0.1:1")
	v.Set("GATEWAY_URL", "http://127.0.0.1:1")
	v.Set("PRICE_LOOKUP_TIMEOUT_SECONDS", 1)
	return config.FromViper(v)
}

func TestBuildServers_MemoryDriver(t *testing.T) {
	cfg := memoryConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, cleanup, err := buildGateway(ctx, cfg)
	require.NoError(t, err)
	defer cleanup.Close()

	products, cleanup, err := buildProducts(cfg)
	require.NoError(t, err)
	defer cleanup.Close()

	orders, cleanup, err := buildOrders(cfg)
	require.NoError(t, err)
	defer cleanup.Close()

	web, err := buildWeb(cfg)
	require.NoError(t, err)

	for name, app := range map[string]interface {
		Test(*http.Request, ...int) (*http.Response, error)
	}{"gateway": gateway, "products": products, "orders": orders} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err, name)
		assert.Equal(t, http.StatusOK, resp.StatusCode, name)
	}

	resp, err := web.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuildGateway_RejectsShortKey(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.JWT.Key = "short"

	_, _, err := buildGateway(context.Background(), cfg)
	assert.ErrorContains(t, err, "JWT_KEY")
}

func TestBuildProducts_SQLite(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.ProductsDSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	app, cleanup, err := buildProducts(cfg)
	require.NoError(t, err)
	defer cleanup.Close()

	body, _ := json.Marshal(map[string]interface{}{"name": "Pen", "price": 1.5})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHandleOrderEvent(t *testing.T) {
	body, err := json.Marshal(models.OrderEvent{
		Event:      models.OrderCreated,
		OrderID:    uuid.New(),
		OwnerID:    uuid.New(),
		ProductID:  uuid.New(),
		Quantity:   2,
		Total:      decimal.RequireFromString("20.00"),
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	assert.NoError(t, handleOrderEvent(amqp.Delivery{RoutingKey: models.OrderCreated, Body: body}))
	assert.Error(t, handleOrderEvent(amqp.Delivery{RoutingKey: models.OrderCreated, Body: []byte("{not json")}))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"gateway", "products", "orders", "web", "all", "order-events"} {
		assert.True(t, names[want], want)
	}
}
