package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
)

// =========================
// CreateOrder - client posts a job
// =========================
func (h *Handler) CreateOrder(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateOrderRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	if !models.ValidCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	order := models.Order{
		ID:          h.newID(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		AuthorEmail: uid,
		CreatedAt:   h.now(),
		Status:      models.OrderOpen,
		Bids:        []models.Bid{},
	}
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		u.Orders = append(u.Orders, order)
		return nil
	})
	if err != nil {
		return h.fail(c, err, "order")
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:     events.OrderCreated,
		Actor:    uid,
		Subject:  uid,
		ItemID:   order.ID,
		Category: order.Category,
		Title:    order.Title,
		Amount:   order.Budget,
		Listing:  OrderListing(order),
	})
	h.Log.Info("order created", zap.String("user", uid), zap.String("order_id", order.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"order":   order,
		"message": "order created successfully",
	})
}

// =========================
// DeleteOrder - owner withdraws a job
// =========================
func (h *Handler) DeleteOrder(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id in URL"})
	}

	var deleted models.Order
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		o := u.FindOrder(id)
		if o == nil || o.Status == models.OrderDeleted {
			return ErrNotFound
		}
		if err := o.Transition(models.OrderDeleted); err != nil {
			return err
		}
		deleted = *o
		return nil
	})
	if err != nil {
		return h.fail(c, err, "order")
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:     events.OrderDeleted,
		Actor:    uid,
		Subject:  uid,
		ItemID:   id,
		Category: deleted.Category,
		Title:    deleted.Title,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "order deleted"})
}

// =========================
// GetUserOrders - caller's orders that are not deleted
// =========================
func (h *Handler) GetUserOrders(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Store.Get(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, err, "orders")
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": u.ActiveOrders()})
}

// =========================
// UpdateOrderStatus - open -> in_progress -> completed
// =========================
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	var req StatusRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	var updated models.Order
	_, err := h.Store.Update(c.Request().Context(), uid, func(u *models.User) error {
		o := u.FindOrder(id)
		if o == nil {
			return ErrNotFound
		}
		if err := o.Transition(models.OrderStatus(req.Status)); err != nil {
			return err
		}
		updated = *o
		return nil
	})
	if err != nil {
		return h.fail(c, err, "order")
	}
	return c.JSON(http.StatusOK, echo.Map{"order": updated})
}
