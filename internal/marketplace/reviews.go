package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
)

// LeaveReview folds a 1-5 rating into another user's running average.
// POST /api/users/:email/reviews
func (h *Handler) LeaveReview(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target := models.NormalizeEmail(c.Param("email"))
	if target == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing email in URL"})
	}
	if target == uid {
		return h.fail(c, ErrSelfReview, "review")
	}

	var req ReviewRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	u, err := h.Store.Update(c.Request().Context(), target, func(u *models.User) error {
		u.AddReview(req.Rating)
		return nil
	})
	if err != nil {
		return h.fail(c, err, "review")
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:    events.ReviewLeft,
		Actor:   uid,
		Subject: target,
		Name:    u.Name,
		Rating:  req.Rating,
	})
	h.Log.Info("review left", zap.String("reviewer", uid), zap.String("reviewee", target), zap.Int("rating", req.Rating))

	return c.JSON(http.StatusCreated, echo.Map{
		"email":   target,
		"rating":  u.Rating,
		"reviews": u.Reviews,
	})
}
