package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenVerifier checks a bearer credential and resolves the account it
// belongs to.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, err error)
}

// Auth validates the bearer token and injects the caller identity into
// the request context under "user_id".
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			userID, err := verifier.VerifyToken(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("user_id", userID)

			return next(c)
		}
	}
}
