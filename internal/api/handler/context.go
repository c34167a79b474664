package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/payroll-api/internal/api/middleware"
)

// actor returns the username injected by the Auth middleware, or "" on
// routes that are not authenticated.
func actor(c echo.Context) string {
	username, _ := c.Get(middleware.ContextUsername).(string)
	return username
}

// bindAndValidate decodes the body into req, answering 400 on malformed
// input and 422 when a validate tag fails.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
