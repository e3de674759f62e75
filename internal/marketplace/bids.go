package marketplace

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
)

// findOrderOwner returns the email of whoever posted orderID.
func (h *Handler) findOrderOwner(ctx context.Context, orderID string) (string, error) {
	owner, err := store.OrderOwner(ctx, h.Store, orderID)
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		return "", ErrNotFound
	case errors.Is(err, store.ErrAmbiguousOrder):
		h.Log.Error("order id held by several users", zap.String("order_id", orderID))
	}
	return owner, err
}

// PlaceBid records the caller's proposal on someone else's open order.
// POST /api/orders/:id/bids
func (h *Handler) PlaceBid(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")

	var req BidRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}

	ctx := c.Request().Context()
	owner, err := h.findOrderOwner(ctx, orderID)
	if err != nil {
		return h.fail(c, err, "order")
	}
	if owner == uid {
		return h.fail(c, ErrOwnOrder, "order")
	}

	bid := models.Bid{
		ID:              h.newID(),
		OrderID:         orderID,
		FreelancerEmail: uid,
		Message:         req.Message,
		CreatedAt:       h.now(),
	}
	var title string
	_, err = h.Store.Update(ctx, owner, func(u *models.User) error {
		o := u.FindOrder(orderID)
		if o == nil || o.Status == models.OrderDeleted {
			return ErrNotFound
		}
		if o.Status != models.OrderOpen {
			return ErrOrderClosed
		}
		if o.HasBidFrom(uid) {
			return ErrDuplicateBid
		}
		o.Bids = append(o.Bids, bid)
		title = o.Title
		return nil
	})
	if err != nil {
		return h.fail(c, err, "order")
	}

	h.Events.Publish(ctx, events.Event{
		Type:    events.BidPlaced,
		Actor:   uid,
		Subject: owner,
		ItemID:  orderID,
		Title:   title,
	})
	h.Log.Info("bid placed", zap.String("order_id", orderID), zap.String("freelancer", uid))

	return c.JSON(http.StatusCreated, echo.Map{"bid": bid})
}

// ListBids shows the bids on one of the caller's orders.
// GET /api/orders/:id/bids
func (h *Handler) ListBids(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Store.Get(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, err, "order")
	}
	o := u.FindOrder(c.Param("id"))
	if o == nil || o.Status == models.OrderDeleted {
		return h.fail(c, ErrNotFound, "order")
	}
	bids := o.Bids
	if bids == nil {
		bids = []models.Bid{}
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": o.ID, "bids": bids})
}
