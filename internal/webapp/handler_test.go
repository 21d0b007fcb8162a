package webapp_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/webapp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers the few gateway calls the pages make.
type fakeGateway struct {
	userID      uuid.UUID
	product     models.Product
	expireToken atomic.Bool
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") && (f.expireToken.Load() || r.Header.Get("Authorization") != "Bearer good-token") {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: models.CodeUnauthorized, Message: "expired"})
		return
	}

	switch {
	case r.URL.Path == "/auth/login":
		var req models.LoginRequest
		_ = jsonDecode(r, &req)
		if req.Password != "Passw0rd!" {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: models.CodeUnauthorized, Message: "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{Token: "good-token", UserID: f.userID, Email: req.Email})
	case r.URL.Path == "/auth/register":
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   models.CodeValidationError,
			Message: "Validation failed",
			Errors:  map[string]string{"password": "must contain a digit"},
		})
	case r.URL.Path == "/api/products" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, []models.Product{f.product})
	case r.URL.Path == "/api/orders" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, []models.Order{})
	case r.URL.Path == "/api/orders" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: models.CodeProductUnresolved, Message: "unresolved"})
	default:
		http.NotFound(w, r)
	}
}

func newWebApp(t *testing.T, gw *fakeGateway) *fiber.App {
	t.Helper()
	server := httptest.NewServer(gw)
	t.Cleanup(server.Close)
	return webapp.NewApp(webapp.NewGatewayClient(server.URL, time.Second), false)
}

func form(t *testing.T, app *fiber.App, path string, values url.Values, cookies []*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, app *fiber.App, path string, cookies []*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func login(t *testing.T, app *fiber.App) []*http.Cookie {
	t.Helper()
	resp := form(t, app, "/login", url.Values{"email": {"jane@example.com"}, "password": {"Passw0rd!"}}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestPagesRequireLogin(t *testing.T) {
	app := newWebApp(t, &fakeGateway{userID: uuid.New()})

	for _, path := range []string{"/products", "/orders", "/products/" + uuid.NewString() + "/edit"} {
		resp := get(t, app, path, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	}

	resp := get(t, app, "/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))

	resp = get(t, app, "/login", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), `action="/login"`)
}

func TestLoginAndListProducts(t *testing.T) {
	gw := &fakeGateway{
		userID:  uuid.New(),
		product: models.Product{ID: uuid.New(), Name: "Desk Lamp", Price: decimal.RequireFromString("19.9")},
	}
	app := newWebApp(t, gw)
	cookies := login(t, app)

	resp := get(t, app, "/products", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := bodyString(t, resp)
	assert.Contains(t, page, "Desk Lamp")
	assert.Contains(t, page, "19.90")
	assert.Contains(t, page, "jane@example.com")

	resp = get(t, app, "/orders", cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "No orders yet.")

	resp = form(t, app, "/logout", url.Values{}, cookies)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp = get(t, app, "/products", cookies)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "session is gone after logout")
}

func TestLoginFailure(t *testing.T) {
	app := newWebApp(t, &fakeGateway{userID: uuid.New()})

	resp := form(t, app, "/login", url.Values{"email": {"jane@example.com"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Invalid email or password.")
}

func TestRegisterShowsFieldErrors(t *testing.T) {
	app := newWebApp(t, &fakeGateway{userID: uuid.New()})

	resp := form(t, app, "/register", url.Values{"email": {"jane@example.com"}, "password": {"Password!"}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page := bodyString(t, resp)
	assert.Contains(t, page, "must contain a digit")
	assert.Contains(t, page, "jane@example.com")
}

func TestCreateOrderUnresolvedProduct(t *testing.T) {
	gw := &fakeGateway{userID: uuid.New(), product: models.Product{ID: uuid.New(), Name: "Chair", Price: decimal.NewFromInt(5)}}
	app := newWebApp(t, gw)
	cookies := login(t, app)

	resp := form(t, app, "/orders", url.Values{
		"productId": {gw.product.ID.String()},
		"quantity":  {"2"},
		"clientId":  {uuid.NewString()},
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "no longer exists")

	resp = form(t, app, "/orders", url.Values{
		"productId": {gw.product.ID.String()},
		"quantity":  {"lots"},
		"clientId":  {uuid.NewString()},
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "must be a whole number")
}

func TestExpiredTokenSendsUserToLogin(t *testing.T) {
	gw := &fakeGateway{userID: uuid.New()}
	app := newWebApp(t, gw)
	cookies := login(t, app)

	gw.expireToken.Store(true)
	resp := get(t, app, "/products", cookies)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
