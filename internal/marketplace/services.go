package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
)

// CreateService lists a new service owned by the caller.
// POST /api/services
func (h *Handler) CreateService(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateServiceRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	if !models.ValidCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	svc := models.Service{
		ID:          h.newID(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		AuthorEmail: uid,
		CreatedAt:   h.now(),
		Status:      models.ServiceActive,
	}
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		u.Services = append(u.Services, svc)
		return nil
	})
	if err != nil {
		return h.fail(c, err, "service")
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:     events.ServiceCreated,
		Actor:    uid,
		Subject:  uid,
		ItemID:   svc.ID,
		Category: svc.Category,
		Title:    svc.Title,
		Amount:   svc.Price,
		Listing:  ServiceListing(svc),
	})
	h.Log.Info("service created", zap.String("user", uid), zap.String("service_id", svc.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"service": svc,
		"message": "service created successfully",
	})
}

// DeleteService marks one of the caller's services deleted.
// DELETE /api/services/:id
func (h *Handler) DeleteService(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id in URL"})
	}

	var deleted models.Service
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		s := u.FindService(id)
		if s == nil || s.Status == models.ServiceDeleted {
			return ErrNotFound
		}
		if err := s.Transition(models.ServiceDeleted); err != nil {
			return err
		}
		deleted = *s
		return nil
	})
	if err != nil {
		return h.fail(c, err, "service")
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:     events.ServiceDeleted,
		Actor:    uid,
		Subject:  uid,
		ItemID:   id,
		Category: deleted.Category,
		Title:    deleted.Title,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted"})
}

// GetUserServices returns the caller's services that are not deleted.
// GET /api/services/me
func (h *Handler) GetUserServices(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Store.Get(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, err, "services")
	}
	return c.JSON(http.StatusOK, echo.Map{"services": u.ActiveServices()})
}

// UpdateServiceStatus moves one of the caller's services to a new status.
// POST /api/services/:id/status
func (h *Handler) UpdateServiceStatus(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	var req StatusRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	var updated models.Service
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		s := u.FindService(id)
		if s == nil {
			return ErrNotFound
		}
		if err := s.Transition(models.ServiceStatus(req.Status)); err != nil {
			return err
		}
		updated = *s
		return nil
	})
	if err != nil {
		return h.fail(c, err, "service")
	}
	return c.JSON(http.StatusOK, echo.Map{"service": updated})
}
