package handlers

import (
	"log"
	"strings"

	"storefront/internal/clients"
	"storefront/internal/middleware"
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
)

// ProxyHandler forwards authenticated gateway requests to a downstream service.
type ProxyHandler struct {
	target string
	secret string
}

// NewProxyHandler creates a handler forwarding to the service at target
// (scheme://host:port). secret is sent as the internal secret when non-empty.
func NewProxyHandler(target, secret string) *ProxyHandler {
	return &ProxyHandler{
		target: strings.TrimRight(target, "/"),
		secret: secret,
	}
}

// RegisterRoutes mounts prefix and every path below it, for all methods.
func (h *ProxyHandler) RegisterRoutes(router fiber.Router, prefix string) {
	router.All(prefix, h.Forward)
	router.All(prefix+"/*", h.Forward)
}

// Forward proxies the request, keeping method, path, query and body. The
// caller id header is always taken from the validated token.
func (h *ProxyHandler) Forward(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
	}

	req := c.Request()
	req.Header.Del(middleware.HeaderEmployeeID)
	req.Header.Set(middleware.HeaderEmployeeID, userID.String())
	req.Header.Del(clients.InternalSecretHeader)
	if h.secret != "" {
		req.Header.Set(clients.InternalSecretHeader, h.secret)
	}

	url := h.target + c.OriginalURL()
	if err := proxy.Do(c, url); err != nil {
		log.Printf("Proxy to %s failed: %v", url, err)
		c.Response().Reset()
		return errorJSON(c, fiber.StatusBadGateway, models.CodeUnavailable, "Downstream service unavailable")
	}
	return nil
}
