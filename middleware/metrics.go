package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware counts requests per method, route and status.
func (m *Middleware) MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if m.metrics == nil {
			return err
		}

		status := c.Response().Status
		if err != nil {
			if httpError, ok := err.(*echo.HTTPError); ok {
				status = httpError.Code
			}
		}

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}

		m.metrics.HTTPRequests.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()

		return err
	}
}
