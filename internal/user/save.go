package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
)

const minPasswordLen = 6

type SaveResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token,omitempty"`
}

var errWeakPassword = errors.New("password must be at least 6 characters")

// POST /api/users/save
// Upserts a whole user record. An unknown email registers a new user;
// a known email requires that user's token.
func (h *Handler) SaveUser(c echo.Context) error {
	req := new(models.User)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = models.NormalizeEmail(req.Email)
	if err := h.Validator.Var(req.Email, "required,email"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}

	_, err := h.Store.Get(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return h.register(c, req)
	case err != nil:
		h.Log.Error("save lookup failed", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}
	return h.update(c, req)
}

func (h *Handler) register(c echo.Context, req *models.User) error {
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errWeakPassword.Error()})
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	req.Password = ""
	req.PasswordHash = hashed
	// rating and review count are earned, never supplied
	req.Reviews = 0
	req.ApplyDefaults()
	if err := req.MergeItems(nil, h.now(), h.newID); err != nil {
		return h.invalidItems(c, err)
	}

	if err := h.Store.Create(c.Request().Context(), req); err != nil {
		if errors.Is(err, store.ErrExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		h.Log.Error("register failed", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save user"})
	}

	token, err := h.Tokens.Issue(req.Email, req.AccountType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:    events.UserRegistered,
		Actor:   req.Email,
		Subject: req.Email,
		Name:    req.Name,
	})
	h.Log.Info("user registered", zap.String("email", req.Email))

	return c.JSON(http.StatusCreated, SaveResponse{
		Message: "user registered",
		User:    req.Sanitized(),
		Token:   token,
	})
}

func (h *Handler) update(c echo.Context, req *models.User) error {
	caller := auth.Email(c)
	if caller == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if caller != req.Email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot modify another user"})
	}
	if req.Password != "" && len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errWeakPassword.Error()})
	}

	var newHash string
	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
		}
		newHash = hashed
	}

	updated, err := h.Store.Update(c.Request().Context(), req.Email, func(u *models.User) error {
		if req.Name != "" {
			u.Name = req.Name
		}
		if req.AccountType.Valid() {
			u.AccountType = req.AccountType
		}
		if req.TelegramID != "" {
			u.TelegramID = req.TelegramID
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		prev := *u
		if req.Services != nil {
			u.Services = req.Services
		}
		if req.Orders != nil {
			u.Orders = req.Orders
		}
		return u.MergeItems(&prev, h.now(), h.newID)
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRecord), errors.Is(err, models.ErrInvalidTransition):
			return h.invalidItems(c, err)
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("save user failed", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save user"})
	}

	// account type may have changed, so hand back a fresh token
	token, err := h.Tokens.Issue(updated.Email, updated.AccountType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, SaveResponse{
		Message: "user saved",
		User:    updated.Sanitized(),
		Token:   token,
	})
}

func (h *Handler) invalidItems(c echo.Context, err error) error {
	if errors.Is(err, models.ErrInvalidTransition) {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}
