package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// serve runs mw in front of a handler that records the context it saw and
// returns the response code after the default error handler ran.
func serve(t *testing.T, mw echo.MiddlewareFunc, prepare func(echo.Context)) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if prepare != nil {
		prepare(c)
	}

	var seen echo.Context
	err := mw(func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, seen
}

func withHeader(value string) func(echo.Context) {
	return func(c echo.Context) {
		c.Request().Header.Set(echo.HeaderAuthorization, value)
	}
}

func TestAuth_InjectsClaims(t *testing.T) {
	token := sign(t, testSecret, jwt.MapClaims{"sub": "u-1", "username": "alice", "role": "admin"})

	code, seen := serve(t, Auth(testSecret), withHeader("Bearer "+token))

	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.Get(ContextUserID))
	assert.Equal(t, "alice", seen.Get(ContextUsername))
	assert.Equal(t, "admin", seen.Get(ContextRole))
}

func TestAuth_AcceptsLowercaseScheme(t *testing.T) {
	token := sign(t, testSecret, jwt.MapClaims{"username": "v", "role": "viewer"})

	code, _ := serve(t, Auth(testSecret), withHeader("bearer "+token))
	assert.Equal(t, http.StatusOK, code)
}

func TestAuth_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Token abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-token"},
		{name: "wrong secret", header: "Bearer " + sign(t, "other", jwt.MapClaims{"role": "admin"})},
		{name: "missing role", header: "Bearer " + sign(t, testSecret, jwt.MapClaims{"username": "alice"})},
		{name: "unknown role", header: "Bearer " + sign(t, testSecret, jwt.MapClaims{"role": "root"})},
		{name: "expired", header: "Bearer " + sign(t, testSecret, jwt.MapClaims{"role": "admin", "exp": 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, seen := serve(t, Auth(testSecret), withHeader(tc.header))
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Nil(t, seen)
		})
	}
}

func TestAuth_RejectsOtherSigningMethods(t *testing.T) {
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	code, _ := serve(t, Auth(testSecret), withHeader("Bearer "+none))
	assert.Equal(t, http.StatusUnauthorized, code)
}
