package middleware

import (
	"net/http"
	"strings"

	"teamsync-server/internal/model"
	"teamsync-server/pkg/jwtutil"
	"teamsync-server/pkg/logger"
	"teamsync-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys for the authenticated identity.
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
	RoleKey   = "role"
)

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "No authorization header found"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "No token provided"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token. Expired, malformed and mis-signed tokens all
		// get the same response.
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Invalid token"})
		}

		// Store user info in context for later use
		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, claims.Role)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// RequireAdmin rejects requests whose verified session claim does not
// carry the Admin role. Must run after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		role, ok := c.Get(RoleKey).(string)
		if !ok || role != model.RoleAdmin {
			log.Error("Admin route denied", zap.String("role", role))
			prometheus.RecordAuthError("admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"msg": "Admin access required"})
		}

		return next(c)
	}
}
