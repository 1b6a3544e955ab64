package middleware

import (
	"github.com/nsiqueira/sfmcli/model"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (m *Middleware) RequestContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := model.GetRequestContext(c)

		rc.Url = c.Request().URL.Path
		rc.RequestID = uuid.NewString()

		model.SetRequestContext(c, rc)

		return next(c)
	}
}
