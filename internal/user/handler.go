package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
	"github.com/sudo-init-do/tgwork/internal/validation"
)

// Handler serves the user-record REST contract.
type Handler struct {
	Store     store.Store
	Tokens    *auth.Tokens
	Events    events.Publisher
	Validator *validation.Validator
	Log       *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.New().String()
}

// GET /api/users/:email
func (h *Handler) GetUser(c echo.Context) error {
	email := models.NormalizeEmail(c.Param("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing email"})
	}

	u, err := h.Store.Get(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("get user failed", zap.String("email", email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}
	return c.JSON(http.StatusOK, u.Sanitized())
}

// GET /api/users/all
func (h *Handler) AllUsers(c echo.Context) error {
	all, err := h.Store.All(c.Request().Context())
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	out := make(map[string]models.User, len(all))
	for email, u := range all {
		out[email] = u.Sanitized()
	}
	return c.JSON(http.StatusOK, out)
}
