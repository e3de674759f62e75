// Package events fans marketplace activity out to live feeds, the
// event log and notification queues.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	UserRegistered Type = "user.registered"
	ServiceCreated Type = "service.created"
	ServiceDeleted Type = "service.deleted"
	OrderCreated   Type = "order.created"
	OrderDeleted   Type = "order.deleted"
	BidPlaced      Type = "bid.placed"
	ReviewLeft     Type = "review.left"
	MessageSent    Type = "message.sent"
	MessageRead    Type = "message.read"
)

// Event is one thing that happened on the marketplace.
// Subject is the email whose record changed; Actor is who caused it.
type Event struct {
	Type     Type      `json:"type"`
	Actor    string    `json:"actor"`
	Subject  string    `json:"subject"`
	ItemID   string    `json:"item_id,omitempty"`
	Category string    `json:"category,omitempty"`
	Title    string    `json:"title,omitempty"`
	Name     string    `json:"name,omitempty"`
	Text     string    `json:"text,omitempty"`
	Amount   float64   `json:"amount,omitempty"`
	Rating   int       `json:"rating,omitempty"`
	Listing  any       `json:"listing,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink receives events from the Bus.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

const (
	queueSize      = 256
	deliverTimeout = 5 * time.Second
)

type queued struct {
	ctx context.Context
	e   Event
}

// Bus delivers each event to every sink from a background goroutine.
// Delivery is best-effort: Publish never blocks, a full queue drops the
// event, and sink failures are logged and never reach the publisher.
type Bus struct {
	log *zap.Logger
	now func() time.Time

	mu     sync.RWMutex
	sinks  []Sink
	closed bool
	queue  chan queued
	done   chan struct{}
}

func NewBus(log *zap.Logger, sinks ...Sink) *Bus {
	b := &Bus{
		sinks: sinks,
		log:   log.Named("events"),
		now:   time.Now,
		queue: make(chan queued, queueSize),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) Add(s Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Publish queues e. The request context only lends its values: delivery
// outlives the request and gets its own timeout per sink.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = b.now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- queued{ctx: context.WithoutCancel(ctx), e: e}:
	default:
		b.log.Warn("event queue full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("subject", e.Subject))
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for q := range b.queue {
		b.mu.RLock()
		sinks := b.sinks
		b.mu.RUnlock()
		for _, s := range sinks {
			b.deliver(q.ctx, s, q.e)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s Sink, e Event) {
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()
	if err := s.Deliver(ctx, e); err != nil {
		b.log.Warn("event delivery failed",
			zap.String("sink", s.Name()),
			zap.String("type", string(e.Type)),
			zap.String("subject", e.Subject),
			zap.Error(err))
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
