package models

import (
	"errors"
	"time"
)

type ServiceStatus string

const (
	ServiceActive    ServiceStatus = "active"
	ServiceCompleted ServiceStatus = "completed"
	ServiceDeleted   ServiceStatus = "deleted"
)

type OrderStatus string

const (
	OrderOpen       OrderStatus = "open"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderDeleted    OrderStatus = "deleted"
)

// Service is an offer listed by a freelancer.
type Service struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Price       float64       `json:"price"`
	AuthorEmail string        `json:"author_email"`
	CreatedAt   time.Time     `json:"created_at"`
	Status      ServiceStatus `json:"status"`
}

// Order is a job posted by a client.
type Order struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Budget      float64     `json:"budget"`
	AuthorEmail string      `json:"author_email"`
	CreatedAt   time.Time   `json:"created_at"`
	Status      OrderStatus `json:"status"`
	Bids        []Bid       `json:"bids,omitempty"`
	Messages    []Message   `json:"messages,omitempty"`
}

// Bid is a freelancer's proposal on an order.
type Bid struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	FreelancerEmail string    `json:"freelancer_email"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// Categories in display order.
var Categories = []string{
	"web",
	"design",
	"writing",
	"marketing",
	"seo",
	"video",
	"music",
	"translation",
}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid status transition")

var serviceTransitions = map[ServiceStatus][]ServiceStatus{
	ServiceActive: {ServiceCompleted, ServiceDeleted},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderOpen:       {OrderInProgress, OrderDeleted},
	OrderInProgress: {OrderCompleted, OrderDeleted},
}

// Transition moves s to next or returns ErrInvalidTransition.
func (s *Service) Transition(next ServiceStatus) error {
	for _, allowed := range serviceTransitions[s.Status] {
		if allowed == next {
			s.Status = next
			return nil
		}
	}
	return ErrInvalidTransition
}

// Transition moves o to next or returns ErrInvalidTransition.
func (o *Order) Transition(next OrderStatus) error {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			o.Status = next
			return nil
		}
	}
	return ErrInvalidTransition
}

// HasBidFrom reports whether email already bid on o.
func (o *Order) HasBidFrom(email string) bool {
	for _, b := range o.Bids {
		if b.FreelancerEmail == email {
			return true
		}
	}
	return false
}
