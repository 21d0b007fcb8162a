package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InternalSecretHeader carries the shared secret between storefront services.
const InternalSecretHeader = "X-Internal-Secret"

// productResponse matches the product service body {id, name, price}.
type productResponse struct {
	ID    uuid.UUID        `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// ProductPriceClient reads current product prices from the product service.
type ProductPriceClient struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewProductPriceClient creates a client for the product service at baseURL.
// Every lookup is bounded by timeout on top of the caller's context.
func NewProductPriceClient(baseURL, secret string, timeout time.Duration) *ProductPriceClient {
	return &ProductPriceClient{
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPrice returns the product's price. ok is false when the price cannot be
// determined for any reason: not found, non-2xx status, transport or decode failure.
// No retry is attempted.
func (c *ProductPriceClient) GetPrice(ctx context.Context, productID uuid.UUID) (price decimal.Decimal, ok bool) {
	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("Error building product request for %s: %v", productID, err)
		return decimal.Zero, false
	}
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set(InternalSecretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling product service for product %s: %v", productID, err)
		return decimal.Zero, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Printf("Product %s not found in product service", productID)
		return decimal.Zero, false
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Product service returned %d for product %s", resp.StatusCode, productID)
		return decimal.Zero, false
	}

	var product productResponse
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		log.Printf("Error decoding product %s: %v", productID, err)
		return decimal.Zero, false
	}
	if product.Price == nil {
		log.Printf("Product service returned no price for product %s", productID)
		return decimal.Zero, false
	}

	return *product.Price, true
}
