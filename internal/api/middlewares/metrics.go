package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Requests counts handled HTTP requests by route and status.
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastd_http_requests_total",
			Help: "Number of HTTP requests handled.",
		},
		[]string{"route", "status"},
	)

	// Latency observes per-route request duration in seconds.
	Latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastd_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Metrics records request counts and latencies.
func Metrics(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	route := c.Route().Path
	status := c.Response().StatusCode()
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
	}

	Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())

	return err
}
