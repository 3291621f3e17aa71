package middleware

import (
	"strconv"
	"time"

	"gigrecs/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			metrics.RequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
