// Package middleware provides the echo middleware shared by all routes:
// JWT authentication and structured request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/splitsmart/splitsmart/internal/auth"
)

const (
	// UserIDKey is the echo context key holding the authenticated user ID.
	UserIDKey = "user_id"
	// EmailKey is the echo context key holding the authenticated email.
	EmailKey = "email"
)

// UserID extracts the authenticated user ID from the request context.
// Returns "" if the request is unauthenticated.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

// Email extracts the authenticated user's email from the request context.
func Email(c echo.Context) string {
	email, _ := c.Get(EmailKey).(string)
	return email
}

// RequireAuth validates the Bearer token on every request and stores the
// caller's identity in the context. Requests without a valid token get 401.
func RequireAuth(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrMissingToken.Error())
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(EmailKey, claims.Email)
			return next(c)
		}
	}
}
