package middleware_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"storefront/internal/clients"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func newAuthService() *services.AuthService {
	return services.NewAuthService(repositories.NewMemoryUserRepository(), services.TokenConfig{
		Secret:   "middleware_test_secret_long_enough_1234",
		Issuer:   "storefront-gateway",
		Audience: "storefront",
		Expiry:   time.Hour,
	})
}

func TestAuthRequired(t *testing.T) {
	authService := newAuthService()
	user := &models.User{ID: uuid.New(), Email: "jane@example.com"}
	token, err := authService.IssueToken(user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(authService), func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id.String())
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, user.ID.String(), string(body))
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + token,
		"empty token":    "Bearer ",
		"garbage token":  "Bearer not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, models.CodeUnauthorized, decodeError(t, resp).Error)
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewFixedWindow(2, time.Minute, ratelimit.WithClock(func() time.Time { return now }))

	app := fiber.New()
	app.Use(middleware.RateLimit(limiter, func(c *fiber.Ctx) string { return c.Get("X-Client") }))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	call := func(client string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := call("a")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(middleware.HeaderRateLimitLimit))
	assert.Equal(t, "1", resp.Header.Get(middleware.HeaderRateLimitRemaining))

	assert.Equal(t, http.StatusOK, call("a").StatusCode)

	resp = call("a")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get(middleware.HeaderRateLimitRemaining))
	assert.Equal(t, models.CodeRateLimited, decodeError(t, resp).Error)

	assert.Equal(t, http.StatusOK, call("b").StatusCode, "other keys have their own window")

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, call("a").StatusCode, "window reset")
}

func TestEmployeeID(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.EmployeeID(), func(c *fiber.Ctx) error {
		id, _ := middleware.EmployeeIDFrom(c)
		return c.SendString(id.String())
	})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderEmployeeID, id.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, id.String(), string(body))

	for _, value := range []string{"", "12345", "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if value != "" {
			req.Header.Set(middleware.HeaderEmployeeID, value)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "header %q", value)
		body := decodeError(t, resp)
		assert.Equal(t, models.CodeValidationError, body.Error)
		assert.Contains(t, body.Errors, middleware.HeaderEmployeeID)
	}
}

func TestInternalSecret(t *testing.T) {
	newApp := func(enforce bool) *fiber.App {
		app := fiber.New()
		app.Use(middleware.InternalSecret("s3cret", enforce))
		app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
		app.Get("/api/products", func(c *fiber.Ctx) error { return c.SendString("ok") })
		return app
	}

	call := func(app *fiber.App, path, secret string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if secret != "" {
			req.Header.Set(clients.InternalSecretHeader, secret)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	enforcing := newApp(true)
	assert.Equal(t, http.StatusOK, call(enforcing, "/api/products", "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, call(enforcing, "/api/products", ""))
	assert.Equal(t, http.StatusUnauthorized, call(enforcing, "/api/products", "wrong"))
	assert.Equal(t, http.StatusOK, call(enforcing, "/health", ""))

	lenient := newApp(false)
	assert.Equal(t, http.StatusOK, call(lenient, "/api/products", ""))
	assert.Equal(t, http.StatusOK, call(lenient, "/api/products", "wrong"))
}
