package marketplace

import (
	"errors"
	"time"

	"github.com/sudo-init-do/tgwork/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrOrderClosed  = errors.New("order is not open for bids")
	ErrOwnOrder     = errors.New("you cannot bid on your own order")
	ErrDuplicateBid = errors.New("you already bid on this order")
	ErrSelfReview   = errors.New("you cannot review yourself")
)

// Kind selects which side of the marketplace a feed shows.
type Kind string

const (
	KindServices Kind = "services"
	KindOrders   Kind = "orders"
)

func (k Kind) Valid() bool {
	return k == KindServices || k == KindOrders
}

// DefaultKind is what a viewer browses unless they ask otherwise:
// freelancers see services, clients see orders.
func DefaultKind(at models.AccountType) Kind {
	if at == models.Client {
		return KindOrders
	}
	return KindServices
}

// Listing is one marketplace card, either a service or an order.
type Listing struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	AuthorEmail string    `json:"author_email"`
	Status      string    `json:"status"`
	Bids        int       `json:"bids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ServiceListing(s models.Service) Listing {
	return Listing{
		Kind:        KindServices,
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		Price:       s.Price,
		AuthorEmail: s.AuthorEmail,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
	}
}

func OrderListing(o models.Order) Listing {
	return Listing{
		Kind:        KindOrders,
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Category:    o.Category,
		Price:       o.Budget,
		AuthorEmail: o.AuthorEmail,
		Status:      string(o.Status),
		Bids:        len(o.Bids),
		CreatedAt:   o.CreatedAt,
	}
}

type CreateServiceRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"gt=0"`
}

type CreateOrderRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Category    string  `json:"category" validate:"required"`
	Budget      float64 `json:"budget" validate:"gt=0"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type BidRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}
