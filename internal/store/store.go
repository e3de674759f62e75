// Package store keeps whole user records keyed by email.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sudo-init-do/tgwork/internal/models"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

// Store is the flat key-value user store behind the REST API.
type Store interface {
	Get(ctx context.Context, email string) (*models.User, error)
	// Create inserts u, failing with ErrExists if the email is taken.
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	All(ctx context.Context) (map[string]models.User, error)
	// Update applies fn to the stored record atomically. Nothing is
	// written if fn returns an error.
	Update(ctx context.Context, email string, fn func(*models.User) error) (*models.User, error)
	Ping(ctx context.Context) error
	Close() error
}

// record is the persisted form; unlike the API form it carries the hash.
type record struct {
	models.User
	PasswordHash string `json:"password_hash,omitempty"`
}

func encode(u *models.User) ([]byte, error) {
	r := record{User: *u, PasswordHash: u.PasswordHash}
	r.User.Password = ""
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode user %s: %w", u.Email, err)
	}
	return b, nil
}

func decode(b []byte) (*models.User, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u, nil
}
