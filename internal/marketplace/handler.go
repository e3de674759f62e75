package marketplace

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
)

// Handler serves marketplace routes. Every mutation is a read-modify-write
// of the owning user's record through Store.Update.
type Handler struct {
	Store  store.Store
	Events events.Publisher
	Log    *zap.Logger

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

// fail maps domain errors to responses; anything unknown is a 500.
func (h *Handler) fail(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, ErrOrderClosed),
		errors.Is(err, ErrDuplicateBid):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrOwnOrder), errors.Is(err, ErrSelfReview):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	h.Log.Error("marketplace request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process " + what})
}

// GET /api/marketplace?category=&kind=
func (h *Handler) Feed(c echo.Context) error {
	viewer := auth.Email(c)
	if viewer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	q := FeedQuery{
		Kind:     Kind(c.QueryParam("kind")),
		Category: c.QueryParam("category"),
		Viewer:   viewer,
	}
	if q.Kind == "" {
		q.Kind = DefaultKind(auth.AccountType(c))
	}
	if !q.Kind.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be services or orders"})
	}
	if q.Category != "" && !models.ValidCategory(q.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	users, err := h.Store.All(c.Request().Context())
	if err != nil {
		h.Log.Error("feed load failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load marketplace"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"kind":     q.Kind,
		"category": q.Category,
		"items":    BuildFeed(users, q),
	})
}

// GET /api/categories
func (h *Handler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": models.Categories})
}

var errBadBody = errors.New("invalid request body")

// decode binds and validates req.
func decode(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	return c.Validate(req)
}

func badRequest(c echo.Context, err error) error {
	if errors.Is(err, errBadBody) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "details": err.Error()})
}
