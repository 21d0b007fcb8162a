package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the gateway answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx gateway answer other than 404.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unauthorized reports whether the token was missing, invalid or expired.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Session is the signed-in user the frontend acts for.
type Session struct {
	Token  string
	UserID uuid.UUID
	Email  string
}

// GatewayClient calls the storefront API gateway on behalf of the frontend.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL.
func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Register creates an account.
func (g *GatewayClient) Register(ctx context.Context, email, password string) error {
	return g.do(ctx, nil, http.MethodPost, "/auth/register", models.Credentials{Email: email, Password: password}, nil)
}

// Login exchanges credentials for a session.
func (g *GatewayClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp models.AuthResponse
	if err := g.do(ctx, nil, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, UserID: resp.UserID, Email: resp.Email}, nil
}

func (g *GatewayClient) ListProducts(ctx context.Context, s *Session) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := g.do(ctx, s, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (g *GatewayClient) GetProduct(ctx context.Context, s *Session, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := g.do(ctx, s, http.MethodGet, "/api/products/"+id.String(), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (g *GatewayClient) CreateProduct(ctx context.Context, s *Session, req models.ProductRequest) (*models.Product, error) {
	var product models.Product
	if err := g.do(ctx, s, http.MethodPost, "/api/products", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (g *GatewayClient) UpdateProduct(ctx context.Context, s *Session, id uuid.UUID, req models.ProductRequest) error {
	return g.do(ctx, s, http.MethodPut, "/api/products/"+id.String(), req, nil)
}

func (g *GatewayClient) DeleteProduct(ctx context.Context, s *Session, id uuid.UUID) error {
	return g.do(ctx, s, http.MethodDelete, "/api/products/"+id.String(), nil, nil)
}

func (g *GatewayClient) ListOrders(ctx context.Context, s *Session) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := g.do(ctx, s, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (g *GatewayClient) GetOrder(ctx context.Context, s *Session, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := g.do(ctx, s, http.MethodGet, "/api/orders/"+id.String(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *GatewayClient) CreateOrder(ctx context.Context, s *Session, req models.OrderRequest) (*models.Order, error) {
	var order models.Order
	if err := g.do(ctx, s, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *GatewayClient) UpdateOrder(ctx context.Context, s *Session, id uuid.UUID, req models.OrderRequest) error {
	return g.do(ctx, s, http.MethodPut, "/api/orders/"+id.String(), req, nil)
}

func (g *GatewayClient) DeleteOrder(ctx context.Context, s *Session, id uuid.UUID) error {
	return g.do(ctx, s, http.MethodDelete, "/api/orders/"+id.String(), nil, nil)
}

// do sends one request. in is JSON encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (g *GatewayClient) do(ctx context.Context, s *Session, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
		// The gateway overwrites this from the token.
		req.Header.Set(middleware.HeaderEmployeeID, s.UserID.String())
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Code = errBody.Error
			apiErr.Message = errBody.Message
			apiErr.Fields = errBody.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
