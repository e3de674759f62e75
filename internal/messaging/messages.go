// Package messaging serves the per-order chat between an order's owner
// and the freelancers who bid on it.
package messaging

import (
	"context"
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

var (
	ErrNotParticipant  = errors.New("not a participant in this order")
	ErrNoThread        = errors.New("to must be a freelancer who bid on this order")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("you can only change your own messages")
	ErrNotRecipient    = errors.New("not the recipient")
	ErrEditWindow      = errors.New("messages can only be edited for 15 minutes after sending")
	ErrMessageDeleted  = errors.New("message was deleted")
)

type SendRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
	// To picks the thread when the order owner writes; bidders leave it empty.
	To string `json:"to"`
}

type EditRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// Handler serves order chat routes. Messages live on the order inside its
// owner's record, so every write goes through Store.Update on that record.
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

func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrOrderNotFound), errors.Is(err, ErrMessageNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrNotAuthor), errors.Is(err, ErrNotRecipient):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrNoThread), errors.Is(err, ErrEditWindow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrMessageDeleted), errors.Is(err, store.ErrAmbiguousOrder):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	h.Log.Error("chat request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process message"})
}

func openOrder(u *models.User, orderID, uid string) (*models.Order, error) {
	o := u.FindOrder(orderID)
	if o == nil || o.Status == models.OrderDeleted {
		return nil, store.ErrOrderNotFound
	}
	if !o.Participant(uid) {
		return nil, ErrNotParticipant
	}
	return o, nil
}

// view loads orderID for reading by uid.
func (h *Handler) view(ctx context.Context, orderID, uid string) (*models.Order, error) {
	owner, err := store.OrderOwner(ctx, h.Store, orderID)
	if err != nil {
		return nil, err
	}
	u, err := h.Store.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	return openOrder(u, orderID, uid)
}

// mutate runs fn on orderID inside its owner's record once uid is known
// to take part in the order.
func (h *Handler) mutate(ctx context.Context, orderID, uid string, fn func(o *models.Order) error) error {
	owner, err := store.OrderOwner(ctx, h.Store, orderID)
	if err != nil {
		return err
	}
	_, err = h.Store.Update(ctx, owner, func(u *models.User) error {
		o, err := openOrder(u, orderID, uid)
		if err != nil {
			return err
		}
		return fn(o)
	})
	return err
}

// SendMessage - owner or bidder writes in an order thread
// POST /api/orders/:id/messages
func (h *Handler) SendMessage(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload", "details": err.Error()})
	}

	var msg models.Message
	var order models.Order
	err := h.mutate(c.Request().Context(), orderID, uid, func(o *models.Order) error {
		thread := uid
		if uid == o.AuthorEmail {
			to := models.NormalizeEmail(req.To)
			if !o.HasBidFrom(to) {
				return ErrNoThread
			}
			thread = to
		}
		msg = models.Message{
			ID:          h.newID(),
			OrderID:     o.ID,
			Thread:      thread,
			AuthorEmail: uid,
			Text:        req.Text,
			CreatedAt:   h.now(),
		}
		o.Messages = append(o.Messages, msg)
		order = *o
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:    events.MessageSent,
		Actor:   uid,
		Subject: msg.Recipient(order.AuthorEmail),
		ItemID:  orderID,
		Title:   order.Title,
		Text:    msg.Text,
		Listing: msg,
	})
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

// ListMessages - the caller's view of an order's chat
// GET /api/orders/:id/messages?with=&since=
// The owner sees every thread, or one with ?with=; a bidder sees their own.
func (h *Handler) ListMessages(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var since time.Time
	if s := c.QueryParam("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, use RFC3339"})
		}
		since = t
	}
	with := models.NormalizeEmail(c.QueryParam("with"))

	o, err := h.view(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return h.fail(c, err)
	}

	msgs := []models.Message{}
	for _, m := range o.Messages {
		if uid != o.AuthorEmail && m.Thread != uid {
			continue
		}
		if with != "" && m.Thread != with {
			continue
		}
		if !since.IsZero() && !m.CreatedAt.After(since) {
			continue
		}
		msgs = append(msgs, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": o.ID, "messages": msgs})
}

// UnreadCount - messages on an order waiting for the caller
// GET /api/orders/:id/messages/unread
func (h *Handler) UnreadCount(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	o, err := h.view(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return h.fail(c, err)
	}
	count := 0
	for i := range o.Messages {
		m := &o.Messages[i]
		if m.ReadAt == nil && !m.Deleted && m.Recipient(o.AuthorEmail) == uid {
			count++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}

// EditMessage - author rewrites a recent message
// PUT /api/orders/:id/messages/:message_id
func (h *Handler) EditMessage(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req EditRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	var edited models.Message
	err := h.mutate(c.Request().Context(), c.Param("id"), uid, func(o *models.Order) error {
		m := o.FindMessage(c.Param("message_id"))
		switch {
		case m == nil:
			return ErrMessageNotFound
		case m.AuthorEmail != uid:
			return ErrNotAuthor
		case m.Deleted:
			return ErrMessageDeleted
		}
		now := h.now()
		if now.Sub(m.CreatedAt) > models.MessageEditWindow {
			return ErrEditWindow
		}
		m.Text = req.Text
		m.Edited = true
		m.EditedAt = &now
		edited = *m
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": edited})
}

// DeleteMessage - author blanks a message; the entry stays in the thread
// DELETE /api/orders/:id/messages/:message_id
func (h *Handler) DeleteMessage(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	err := h.mutate(c.Request().Context(), c.Param("id"), uid, func(o *models.Order) error {
		m := o.FindMessage(c.Param("message_id"))
		if m == nil {
			return ErrMessageNotFound
		}
		if m.AuthorEmail != uid {
			return ErrNotAuthor
		}
		m.Erase()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "message deleted"})
}

// MarkMessageRead - recipient marks a message as read
// POST /api/orders/:id/messages/:message_id/read
func (h *Handler) MarkMessageRead(c echo.Context) error {
	uid := auth.Email(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")

	var read models.Message
	err := h.mutate(c.Request().Context(), orderID, uid, func(o *models.Order) error {
		m := o.FindMessage(c.Param("message_id"))
		if m == nil {
			return ErrMessageNotFound
		}
		if m.Recipient(o.AuthorEmail) != uid {
			return ErrNotRecipient
		}
		if m.ReadAt == nil {
			now := h.now()
			m.ReadAt = &now
		}
		read = *m
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}

	h.Events.Publish(c.Request().Context(), events.Event{
		Type:    events.MessageRead,
		Actor:   uid,
		Subject: read.AuthorEmail,
		ItemID:  orderID,
		Listing: read,
	})
	return c.JSON(http.StatusOK, echo.Map{"message_id": read.ID, "read_at": read.ReadAt})
}
