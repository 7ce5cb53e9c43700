package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimiting rejects requests beyond the configured sustained rate
// and burst with 429.
func RateLimiting(rps float64, burst int) fiber.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
