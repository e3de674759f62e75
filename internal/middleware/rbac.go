package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/models"
)

// RequireAccountType ensures the caller's account type is one of the allowed ones.
// Usage: route(..., RequireAccountType(models.Freelancer))
func RequireAccountType(types ...models.AccountType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			at := auth.AccountType(c)
			if at == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account type missing"})
			}
			for _, t := range types {
				if at == t {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	}
}
