package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
)

const writeWait = 5 * time.Second

type wsEvent struct {
	Type Type        `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	conn     *websocket.Conn
	email    string
	category string
	mu       sync.Mutex
}

func (s *subscriber) wants(e Event) bool {
	switch e.Type {
	case MessageSent, MessageRead:
		// chat traffic goes to the other side of the thread only
		return e.Subject == s.email
	}
	if s.category != "" && e.Category != s.category {
		return false
	}
	return e.Actor != s.email
}

func (s *subscriber) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub pushes listing changes and chat messages to connected pages.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.Named("hub"),
	}
}

func (h *Hub) Name() string { return "hub" }

// Len reports how many pages are connected.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Deliver broadcasts listing events to feed pages and pushes order chat
// events to their recipient. Other event types are ignored.
func (h *Hub) Deliver(_ context.Context, e Event) error {
	switch e.Type {
	case ServiceCreated, ServiceDeleted, OrderCreated, OrderDeleted, MessageSent, MessageRead:
	default:
		return nil
	}
	payload, err := json.Marshal(wsEvent{Type: e.Type, Data: e})
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		if s.wants(e) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.write(payload); err != nil {
			h.log.Debug("dropping subscriber", zap.String("email", s.email), zap.Error(err))
			h.unregister(s)
			_ = s.conn.Close()
		}
	}
	return nil
}

// ServeWS upgrades the request and streams feed events until the client
// goes away.
// GET /api/marketplace/ws?category=
func (h *Hub) ServeWS(c echo.Context) error {
	email := auth.Email(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	s := &subscriber{conn: ws, email: email, category: c.QueryParam("category")}
	h.register(s)
	h.log.Debug("subscriber joined", zap.String("email", email), zap.String("category", s.category))

	// Server push only; reads just detect the close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(s)
	_ = ws.Close()
	return nil
}
