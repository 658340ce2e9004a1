package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"teamsync-server/pkg/config"
	"teamsync-server/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedEcho(handler echo.HandlerFunc, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", handler, mw...)
	return e
}

func get(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(UserIDKey),
		"role":    c.Get(RoleKey),
	})
}

func TestAuthMiddleware(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationHours: 1})
	e := newAuthedEcho(okHandler, AuthMiddleware)

	t.Run("missing header", func(t *testing.T) {
		rec := get(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		rec := get(e, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := get(e, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		token, err := jwtutil.GenerateToken(7, "a@x.com", "HR")
		require.NoError(t, err)
		rec := get(e, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":7`)
		assert.Contains(t, rec.Body.String(), `"role":"HR"`)
	})
}

func TestRequireAdmin(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationHours: 1})
	e := newAuthedEcho(okHandler, AuthMiddleware, RequireAdmin)

	t.Run("non-admin role", func(t *testing.T) {
		token, err := jwtutil.GenerateToken(7, "a@x.com", "Employee")
		require.NoError(t, err)
		rec := get(e, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin role", func(t *testing.T) {
		token, err := jwtutil.GenerateToken(8, "admin@x.com", "Admin")
		require.NoError(t, err)
		rec := get(e, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
