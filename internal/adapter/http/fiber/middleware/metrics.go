package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
)

// Metrics records request counts and latencies for Prometheus. The
// route template, not the raw path, is used as the label.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		method := c.Method()

		telemetry.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		telemetry.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}
