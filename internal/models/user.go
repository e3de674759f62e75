package models

import "strings"

type AccountType string

const (
	Freelancer AccountType = "freelancer"
	Client     AccountType = "client"
)

func (a AccountType) Valid() bool {
	return a == Freelancer || a == Client
}

// User is the whole record the store keeps per email.
type User struct {
	Email        string      `json:"email"`
	Password     string      `json:"password,omitempty"` // input only
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	Services     []Service   `json:"services"`
	Orders       []Order     `json:"orders"`
	Rating       float64     `json:"rating"`
	Reviews      int         `json:"reviews"`
	TelegramID   string      `json:"telegram_id,omitempty"`
}

const (
	DefaultRating = 5.0
)

// NormalizeEmail trims and lower-cases an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ApplyDefaults fills the fields a freshly registered user starts with.
func (u *User) ApplyDefaults() {
	u.Email = NormalizeEmail(u.Email)
	if !u.AccountType.Valid() {
		u.AccountType = Freelancer
	}
	if u.Services == nil {
		u.Services = []Service{}
	}
	if u.Orders == nil {
		u.Orders = []Order{}
	}
	if u.Reviews == 0 {
		u.Rating = DefaultRating
	}
}

// Sanitized returns a copy safe to send to clients. Order chats are
// private to their participants and are left out.
func (u User) Sanitized() User {
	u.Password = ""
	u.PasswordHash = ""
	if u.Services == nil {
		u.Services = []Service{}
	}
	orders := make([]Order, len(u.Orders))
	for i, o := range u.Orders {
		o.Messages = nil
		orders[i] = o
	}
	u.Orders = orders
	return u
}

func (u *User) ActiveServices() []Service {
	out := make([]Service, 0, len(u.Services))
	for _, s := range u.Services {
		if s.Status != ServiceDeleted {
			out = append(out, s)
		}
	}
	return out
}

func (u *User) ActiveOrders() []Order {
	out := make([]Order, 0, len(u.Orders))
	for _, o := range u.Orders {
		if o.Status != OrderDeleted {
			out = append(out, o)
		}
	}
	return out
}

// FindService returns a pointer into u.Services, or nil.
func (u *User) FindService(id string) *Service {
	for i := range u.Services {
		if u.Services[i].ID == id {
			return &u.Services[i]
		}
	}
	return nil
}

// FindOrder returns a pointer into u.Orders, or nil.
func (u *User) FindOrder(id string) *Order {
	for i := range u.Orders {
		if u.Orders[i].ID == id {
			return &u.Orders[i]
		}
	}
	return nil
}

// AddReview folds a new 1..5 rating into the running average.
func (u *User) AddReview(rating int) {
	if u.Reviews <= 0 {
		u.Rating = float64(rating)
		u.Reviews = 1
		return
	}
	u.Rating = (u.Rating*float64(u.Reviews) + float64(rating)) / float64(u.Reviews+1)
	u.Reviews++
}
