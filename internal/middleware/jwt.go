package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tgwork/internal/auth"
)

const bearerPrefix = "Bearer "

// JWT rejects requests without a valid bearer token.
func JWT(tokens *auth.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing Authorization header"})
			}
			if !strings.HasPrefix(header, bearerPrefix) || len(header) <= len(bearerPrefix) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid Authorization format"})
			}
			claims, err := tokens.Parse(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			auth.SetIdentity(c, claims)
			return next(c)
		}
	}
}

// OptionalJWT sets the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalJWT(tokens *auth.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, bearerPrefix) {
				if claims, err := tokens.Parse(strings.TrimPrefix(header, bearerPrefix)); err == nil {
					auth.SetIdentity(c, claims)
				}
			}
			return next(c)
		}
	}
}
