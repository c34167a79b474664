package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

// RequireRole admits requests whose role, as set by Auth, is one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return authorize(func(role string) bool {
		_, ok := allowed[role]
		return ok
	})
}

// ManageEmployees admits the roles allowed to write employee records.
func ManageEmployees() echo.MiddlewareFunc {
	return authorize(domain.CanManageEmployees)
}

// authorize must run after Auth. A request that reaches it without a role
// was never authenticated and gets 401 rather than 403.
func authorize(permit func(role string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !permit(role) {
				return echo.NewHTTPError(http.StatusForbidden, "role "+role+" may not perform this action")
			}
			return next(c)
		}
	}
}
