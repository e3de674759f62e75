package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
)

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, name, resetURL string, expires time.Duration) error
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

const resetRequested = "If the email exists, a reset link has been sent."

// POST /api/auth/password/request
// Always responds with the same message so callers cannot tell which emails exist.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	ok := func() error { return c.JSON(http.StatusOK, echo.Map{"message": resetRequested}) }

	req := new(RequestPasswordResetRequest)
	if err := c.Bind(req); err != nil || c.Validate(req) != nil {
		return ok()
	}
	ctx := c.Request().Context()
	u, err := h.Store.Get(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.Log.Error("reset lookup failed", zap.Error(err))
		}
		return ok()
	}

	signed, err := h.Tokens.IssueReset(u.Email, u.PasswordHash)
	if err != nil {
		h.Log.Error("reset token generation failed", zap.Error(err))
		return ok()
	}
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.AppURL, url.QueryEscape(signed))

	if h.Resets == nil {
		h.Log.Warn("password reset requested but email is not configured", zap.String("email", u.Email))
		return ok()
	}
	if err := h.Resets.SendPasswordReset(ctx, u.Email, u.Name, resetURL, h.Tokens.ResetTTL); err != nil {
		h.Log.Error("enqueue password reset failed", zap.String("email", u.Email), zap.Error(err))
	}
	return ok()
}

// POST /api/auth/password/reset
func (h *Handler) ResetPassword(c echo.Context) error {
	req := new(ResetPasswordRequest)
	if err := c.Bind(req); err != nil || c.Validate(req) != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	email, fingerprint, err := h.Tokens.ParseReset(req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	_, err = h.Store.Update(c.Request().Context(), email, func(u *models.User) error {
		// a used link carries the old password's fingerprint
		if PasswordFingerprint(u.PasswordHash) != fingerprint {
			return ErrInvalidToken
		}
		u.PasswordHash = hashed
		return nil
	})
	switch {
	case errors.Is(err, ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case err != nil:
		h.Log.Error("password reset failed", zap.String("email", email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update password"})
	}

	h.Log.Info("password reset", zap.String("email", email))
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated successfully"})
}
