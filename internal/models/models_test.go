package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	u := User{Email: "  Ann@Example.COM ", Name: "Ann"}
	u.ApplyDefaults()

	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, Freelancer, u.AccountType)
	assert.Equal(t, DefaultRating, u.Rating)
	assert.Equal(t, 0, u.Reviews)
	assert.NotNil(t, u.Services)
	assert.NotNil(t, u.Orders)
}

func TestApplyDefaultsKeepsClient(t *testing.T) {
	u := User{Email: "c@example.com", AccountType: Client}
	u.ApplyDefaults()
	assert.Equal(t, Client, u.AccountType)
}

func TestSanitizedDropsPasswords(t *testing.T) {
	u := User{Email: "a@b.c", Password: "secret", PasswordHash: "$2a$hash"}
	s := u.Sanitized()
	assert.Empty(t, s.Password)
	assert.Empty(t, s.PasswordHash)
	assert.Equal(t, "secret", u.Password, "original must be untouched")
}

func TestActiveListsSkipDeleted(t *testing.T) {
	u := User{
		Services: []Service{{ID: "1", Status: ServiceActive}, {ID: "2", Status: ServiceDeleted}, {ID: "3", Status: ServiceCompleted}},
		Orders:   []Order{{ID: "a", Status: OrderDeleted}, {ID: "b", Status: OrderOpen}},
	}
	assert.Len(t, u.ActiveServices(), 2)
	require.Len(t, u.ActiveOrders(), 1)
	assert.Equal(t, "b", u.ActiveOrders()[0].ID)
}

func TestFindReturnsPointerIntoSlice(t *testing.T) {
	u := User{Orders: []Order{{ID: "a", Status: OrderOpen}}}
	o := u.FindOrder("a")
	require.NotNil(t, o)
	o.Status = OrderInProgress
	assert.Equal(t, OrderInProgress, u.Orders[0].Status)
	assert.Nil(t, u.FindOrder("missing"))
	assert.Nil(t, u.FindService("missing"))
}

func TestAddReview(t *testing.T) {
	u := User{Rating: DefaultRating}
	u.AddReview(3)
	assert.Equal(t, 3.0, u.Rating)
	assert.Equal(t, 1, u.Reviews)

	u.AddReview(5)
	assert.InDelta(t, 4.0, u.Rating, 1e-9)
	assert.Equal(t, 2, u.Reviews)
}

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderOpen, OrderInProgress, true},
		{OrderOpen, OrderCompleted, false},
		{OrderInProgress, OrderCompleted, true},
		{OrderInProgress, OrderDeleted, true},
		{OrderCompleted, OrderDeleted, false},
		{OrderDeleted, OrderOpen, false},
	}
	for _, tt := range tests {
		o := Order{Status: tt.from}
		err := o.Transition(tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, o.Status)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, o.Status)
		}
	}
}

func TestServiceTransitions(t *testing.T) {
	s := Service{Status: ServiceActive}
	require.NoError(t, s.Transition(ServiceCompleted))
	assert.ErrorIs(t, s.Transition(ServiceActive), ErrInvalidTransition)
	assert.ErrorIs(t, s.Transition(ServiceDeleted), ErrInvalidTransition)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory("web"))
	assert.True(t, ValidCategory("translation"))
	assert.False(t, ValidCategory("Web"))
	assert.False(t, ValidCategory(""))
}

func TestHasBidFrom(t *testing.T) {
	o := Order{Bids: []Bid{{FreelancerEmail: "f@x.io"}}}
	assert.True(t, o.HasBidFrom("f@x.io"))
	assert.False(t, o.HasBidFrom("g@x.io"))
}

func TestSanitizedDropsOrderChats(t *testing.T) {
	u := User{Orders: []Order{{ID: "a", Messages: []Message{{ID: "m1", Text: "private"}}}}}
	s := u.Sanitized()
	require.Len(t, s.Orders, 1)
	assert.Nil(t, s.Orders[0].Messages)
	assert.Len(t, u.Orders[0].Messages, 1, "original must be untouched")
}

func TestMessageRecipientAndErase(t *testing.T) {
	o := Order{ID: "o1", AuthorEmail: "owner@example.com", Bids: []Bid{{FreelancerEmail: "f@example.com"}}}
	assert.True(t, o.Participant("owner@example.com"))
	assert.True(t, o.Participant("f@example.com"))
	assert.False(t, o.Participant("stranger@example.com"))

	fromOwner := Message{Thread: "f@example.com", AuthorEmail: "owner@example.com"}
	fromBidder := Message{Thread: "f@example.com", AuthorEmail: "f@example.com"}
	assert.Equal(t, "f@example.com", fromOwner.Recipient(o.AuthorEmail))
	assert.Equal(t, "owner@example.com", fromBidder.Recipient(o.AuthorEmail))

	o.Messages = []Message{fromBidder}
	o.Messages[0].ID = "m1"
	m := o.FindMessage("m1")
	require.NotNil(t, m)
	m.Erase()
	assert.True(t, o.Messages[0].Deleted)
	assert.Equal(t, "[message deleted]", o.Messages[0].Text)
	assert.Nil(t, o.FindMessage("nope"))
}
