package middleware

import (
	"fmt"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := time.Since(start).Seconds()
			endpoint := c.Path()
			method := c.Request().Method
			status := fmt.Sprintf("%d", c.Response().Status)

			metrics.HttpRequestsTotal.WithLabelValues(endpoint, status, method).Inc()
			metrics.HttpRequestDuration.WithLabelValues(endpoint, method).Observe(duration)
			return nil
		}
	}
}
