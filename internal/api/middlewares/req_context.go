package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID tags every request with a generated ID so log lines from
// one request can be correlated.
func RequestID(c *fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals(requestIDKey, id)
	c.Set("X-Request-ID", id)
	return c.Next()
}
