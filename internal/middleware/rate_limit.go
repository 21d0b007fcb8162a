package middleware

import (
	"strconv"

	"storefront/internal/models"
	"storefront/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

// RateLimit rejects requests over the limiter's budget with 429. keyFunc
// selects the partition key and defaults to the caller's address.
func RateLimit(limiter *ratelimit.FixedWindow, keyFunc func(*fiber.Ctx) string) fiber.Handler {
	if keyFunc == nil {
		keyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}

	return func(c *fiber.Ctx) error {
		decision := limiter.Allow(keyFunc(c))

		c.Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
		c.Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:   models.CodeRateLimited,
				Message: "Too many requests, try again later",
			})
		}
		return c.Next()
	}
}
