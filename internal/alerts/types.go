package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail   = "email:welcome"
	TaskBidReceived    = "email:bid_received"
	TaskReviewReceived = "email:review_received"
	TaskMessageNew     = "email:message_new"
	TaskPasswordReset  = "email:password_reset"
)

const queueEmails = "emails"

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Bid received payload (sent to the order owner)
type BidReceivedPayload struct {
	OrderID    string        `json:"order_id"`
	OrderTitle string        `json:"order_title"`
	Freelancer string        `json:"freelancer"`
	Email      string        `json:"email"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Review received payload (sent to the reviewed user)
type ReviewReceivedPayload struct {
	Reviewer string        `json:"reviewer"`
	Email    string        `json:"email"`
	Rating   int           `json:"rating"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// New chat message payload (sent to the other side of the thread)
type MessageNewPayload struct {
	OrderID    string        `json:"order_id"`
	OrderTitle string        `json:"order_title"`
	From       string        `json:"from"`
	Email      string        `json:"email"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Password reset payload
type PasswordResetPayload struct {
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}
