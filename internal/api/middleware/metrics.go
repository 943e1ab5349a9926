package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cropsure/cropsure-api/internal/api/metrics"
)

// handledErrorKey keeps an error already rendered by Metrics for RequestLogger.
const handledErrorKey = "handled_error"

// Metrics records request count and latency per registered route. Errors are
// handed to the echo error handler here so the recorded status is final.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
				c.Set(handledErrorKey, err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
