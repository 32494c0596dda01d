package middleware

import (
	"time"

	"task-points-market/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		metrics.RecordHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
