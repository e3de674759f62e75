package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tgwork/internal/models"
)

const (
	ctxEmail       = "email"
	ctxAccountType = "account_type"
)

// SetIdentity stores verified claims on the request context.
func SetIdentity(c echo.Context, claims *Claims) {
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxAccountType, claims.AccountType)
}

// Email returns the authenticated caller's email, or "".
func Email(c echo.Context) string {
	email, _ := c.Get(ctxEmail).(string)
	return email
}

// AccountType returns the account type carried by the caller's token.
func AccountType(c echo.Context) models.AccountType {
	at, _ := c.Get(ctxAccountType).(models.AccountType)
	return at
}
