package middleware

import (
	"strconv"
	"time"

	"cafe-inventory/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Prometheus records request count and latency per route pattern.
func Prometheus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		path := c.Route().Path
		if path == "" {
			path = "undefined"
		}

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		metrics.HttpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
		return err
	}
}
