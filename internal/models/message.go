package models

import "time"

// MessageEditWindow is how long after sending a message can still be edited.
const MessageEditWindow = 15 * time.Minute

const deletedMessageText = "[message deleted]"

// Message is one line of an order chat. Each order has one thread per
// bidder, keyed by the bidder's email; the order owner takes part in all
// of them.
type Message struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Thread      string     `json:"thread"`
	AuthorEmail string     `json:"author_email"`
	Text        string     `json:"text"`
	Edited      bool       `json:"is_edited"`
	Deleted     bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// Recipient is the other side of m's thread on an order owned by owner.
func (m *Message) Recipient(owner string) string {
	if m.AuthorEmail == owner {
		return m.Thread
	}
	return owner
}

// Erase blanks a message in place; the entry stays so the thread keeps
// its shape.
func (m *Message) Erase() {
	m.Deleted = true
	m.Text = deletedMessageText
}

// FindMessage returns a pointer into o.Messages, or nil.
func (o *Order) FindMessage(id string) *Message {
	for i := range o.Messages {
		if o.Messages[i].ID == id {
			return &o.Messages[i]
		}
	}
	return nil
}

// Participant reports whether email may chat on o: the owner or anyone
// who has bid on it.
func (o *Order) Participant(email string) bool {
	return email == o.AuthorEmail || o.HasBidFrom(email)
}
