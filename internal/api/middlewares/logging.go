package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Logging writes one structured line per request, including the request
// ID added by RequestID.
func Logging(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		requestID, _ := c.Locals(requestIDKey).(string)
		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("Request failed")
		} else {
			entry.Info("Request handled")
		}
		return err
	}
}
