package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

func withRole(role string) func(echo.Context) {
	return func(c echo.Context) {
		c.Set(ContextRole, role)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		role  string
		want  int
	}{
		{name: "listed role", roles: []string{domain.RoleAdmin}, role: domain.RoleAdmin, want: http.StatusOK},
		{name: "any of several", roles: []string{domain.RoleAdmin, domain.RoleViewer}, role: domain.RoleViewer, want: http.StatusOK},
		{name: "unlisted role", roles: []string{domain.RoleAdmin}, role: domain.RoleViewer, want: http.StatusForbidden},
		{name: "not authenticated", roles: []string{domain.RoleAdmin}, role: "", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := serve(t, RequireRole(tc.roles...), withRole(tc.role))
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestManageEmployees(t *testing.T) {
	code, _ := serve(t, ManageEmployees(), withRole(domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, code)

	code, seen := serve(t, ManageEmployees(), withRole(domain.RoleViewer))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Nil(t, seen)
}
