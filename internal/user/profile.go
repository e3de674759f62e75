package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
)

// Profile is the public summary shown on a user's profile.
type Profile struct {
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	AccountType models.AccountType `json:"accountType"`
	Rating      float64            `json:"rating"`
	Reviews     int                `json:"reviews"`
	Services    int                `json:"services"`
	Orders      int                `json:"orders"`
}

func ProfileOf(u *models.User) Profile {
	return Profile{
		Email:       u.Email,
		Name:        u.Name,
		AccountType: u.AccountType,
		Rating:      u.Rating,
		Reviews:     u.Reviews,
		Services:    len(u.ActiveServices()),
		Orders:      len(u.ActiveOrders()),
	}
}

// GET /api/users/:email/profile
func (h *Handler) GetProfile(c echo.Context) error {
	email := models.NormalizeEmail(c.Param("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing email"})
	}
	u, err := h.Store.Get(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}
	return c.JSON(http.StatusOK, ProfileOf(u))
}
