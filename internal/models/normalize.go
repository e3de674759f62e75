package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRecord = errors.New("invalid record")

func validServiceStatus(s ServiceStatus) bool {
	return s == ServiceActive || s == ServiceCompleted || s == ServiceDeleted
}

func validOrderStatus(s OrderStatus) bool {
	return s == OrderOpen || s == OrderInProgress || s == OrderCompleted || s == OrderDeleted
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRecord}, args...)...)
}

// MergeItems checks the services and orders a client sent for u against
// the stored record prev and stamps the fields the server owns.
//
// Items whose id is not already in prev are new: they get a fresh id and
// must start active (services) or open (orders). Items that exist keep
// their stored created_at and bids, and may only change status along the
// transition table. Every item needs a title and a known category.
func (u *User) MergeItems(prev *User, now time.Time, newID func() string) error {
	if prev == nil {
		prev = &User{}
	}
	if u.Services == nil {
		u.Services = []Service{}
	}
	if u.Orders == nil {
		u.Orders = []Order{}
	}

	seen := make(map[string]bool, len(u.Services))
	for i := range u.Services {
		s := &u.Services[i]
		s.AuthorEmail = u.Email
		if err := checkItem(s.Title, s.Category, s.Price); err != nil {
			return err
		}
		if s.Status != "" && !validServiceStatus(s.Status) {
			return invalid("service %s has unknown status %q", s.ID, s.Status)
		}

		var old *Service
		if s.ID != "" {
			old = prev.FindService(s.ID)
		}
		if old == nil {
			s.ID = newID()
			if s.CreatedAt.IsZero() {
				s.CreatedAt = now
			}
			if s.Status == "" {
				s.Status = ServiceActive
			}
			if s.Status != ServiceActive {
				return fmt.Errorf("%w: a new service must start %s", ErrInvalidTransition, ServiceActive)
			}
		} else {
			if seen[s.ID] {
				return invalid("service %s appears twice", s.ID)
			}
			s.CreatedAt = old.CreatedAt
			if s.Status == "" {
				s.Status = old.Status
			}
			if s.Status != old.Status {
				moved := *old
				if err := moved.Transition(s.Status); err != nil {
					return fmt.Errorf("%w: service %s cannot go from %s to %s", err, s.ID, old.Status, s.Status)
				}
			}
		}
		seen[s.ID] = true
	}

	seen = make(map[string]bool, len(u.Orders))
	for i := range u.Orders {
		o := &u.Orders[i]
		o.AuthorEmail = u.Email
		if err := checkItem(o.Title, o.Category, o.Budget); err != nil {
			return err
		}
		if o.Status != "" && !validOrderStatus(o.Status) {
			return invalid("order %s has unknown status %q", o.ID, o.Status)
		}

		var old *Order
		if o.ID != "" {
			old = prev.FindOrder(o.ID)
		}
		if old == nil {
			o.ID = newID()
			o.Bids = nil
			o.Messages = nil
			if o.CreatedAt.IsZero() {
				o.CreatedAt = now
			}
			if o.Status == "" {
				o.Status = OrderOpen
			}
			if o.Status != OrderOpen {
				return fmt.Errorf("%w: a new order must start %s", ErrInvalidTransition, OrderOpen)
			}
		} else {
			if seen[o.ID] {
				return invalid("order %s appears twice", o.ID)
			}
			// bids and chats are written by other users
			o.Bids = old.Bids
			o.Messages = old.Messages
			o.CreatedAt = old.CreatedAt
			if o.Status == "" {
				o.Status = old.Status
			}
			if o.Status != old.Status {
				moved := *old
				if err := moved.Transition(o.Status); err != nil {
					return fmt.Errorf("%w: order %s cannot go from %s to %s", err, o.ID, old.Status, o.Status)
				}
			}
		}
		seen[o.ID] = true
	}
	return nil
}

func checkItem(title, category string, amount float64) error {
	if title == "" {
		return invalid("title is required")
	}
	if !ValidCategory(category) {
		return invalid("unknown category %q", category)
	}
	if amount < 0 {
		return invalid("%q has a negative price", title)
	}
	return nil
}
