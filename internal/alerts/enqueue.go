package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/tgwork/internal/events"
)

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier turns marketplace events into queued emails.
type Notifier struct {
	enq    Enqueuer
	appURL string
	now    func() time.Time
}

func NewNotifier(enq Enqueuer, appURL string) *Notifier {
	return &Notifier{enq: enq, appURL: appURL, now: time.Now}
}

func (n *Notifier) Name() string { return "alerts" }

// Deliver enqueues the email for e, if its type has one.
func (n *Notifier) Deliver(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.UserRegistered:
		return n.enqueueWelcome(ctx, e.Subject, e.Name)
	case events.BidPlaced:
		return n.enqueueBidReceived(ctx, e.Subject, e.Actor, e.ItemID, e.Title)
	case events.ReviewLeft:
		return n.enqueueReviewReceived(ctx, e.Subject, e.Actor, e.Rating)
	case events.MessageSent:
		return n.enqueueMessageNew(ctx, e.Subject, e.Actor, e.ItemID, e.Title, e.Text)
	}
	return nil
}

func (n *Notifier) enqueue(ctx context.Context, taskType string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = n.enq.EnqueueContext(ctx, asynq.NewTask(taskType, b), asynq.Queue(queueEmails), asynq.MaxRetry(5))
	return err
}

func (n *Notifier) enqueueWelcome(ctx context.Context, email, name string) error {
	if name == "" {
		name = email
	}
	env := EmailEnvelope{
		To:      email,
		Subject: fmt.Sprintf("Welcome to TgWork, %s!", name),
		Body:    fmt.Sprintf("Hi %s, thanks for joining TgWork.\n\nOpen TgWork: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, n.appURL),
	}
	return n.enqueue(ctx, TaskWelcomeEmail, WelcomeEmailPayload{Name: name, Email: email, Envelope: env, SentAt: n.now()})
}

func (n *Notifier) enqueueBidReceived(ctx context.Context, owner, freelancer, orderID, title string) error {
	env := EmailEnvelope{
		To:      owner,
		Subject: fmt.Sprintf("New bid on %q", title),
		Body:    fmt.Sprintf("%s placed a bid on your order %q.\n\nReview bids: %s", freelancer, title, n.appURL),
	}
	return n.enqueue(ctx, TaskBidReceived, BidReceivedPayload{
		OrderID: orderID, OrderTitle: title, Freelancer: freelancer, Email: owner, Envelope: env, SentAt: n.now(),
	})
}

func (n *Notifier) enqueueReviewReceived(ctx context.Context, email, reviewer string, rating int) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "You received a new review",
		Body:    fmt.Sprintf("%s rated you %d out of 5.\n\nSee your profile: %s", reviewer, rating, n.appURL),
	}
	return n.enqueue(ctx, TaskReviewReceived, ReviewReceivedPayload{
		Reviewer: reviewer, Email: email, Rating: rating, Envelope: env, SentAt: n.now(),
	})
}

func (n *Notifier) enqueueMessageNew(ctx context.Context, to, from, orderID, title, text string) error {
	env := EmailEnvelope{
		To:      to,
		Subject: fmt.Sprintf("New message about %q", title),
		Body:    fmt.Sprintf("%s wrote:\n\n%s\n\nReply in TgWork: %s", from, text, n.appURL),
	}
	return n.enqueue(ctx, TaskMessageNew, MessageNewPayload{
		OrderID: orderID, OrderTitle: title, From: from, Email: to, Envelope: env, SentAt: n.now(),
	})
}

// SendPasswordReset queues the reset link for email. It is called
// directly rather than through an event so the link never reaches the
// event log.
func (n *Notifier) SendPasswordReset(ctx context.Context, email, name, resetURL string, expires time.Duration) error {
	if name == "" {
		name = email
	}
	env := EmailEnvelope{
		To:      email,
		Subject: "Password reset instructions",
		Body: fmt.Sprintf("Hello %s,\n\nWe received a request to reset your TgWork password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in %d minutes. If you did not request this, no action is required.",
			name, resetURL, int(expires.Minutes())),
	}
	return n.enqueue(ctx, TaskPasswordReset, PasswordResetPayload{Email: email, ResetURL: resetURL, Envelope: env, Requested: n.now()})
}
