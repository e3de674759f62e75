package store

import (
	"context"
	"sync"

	"github.com/sudo-init-do/tgwork/internal/models"
)

// Memory keeps encoded records in a map, so callers never share slices
// with the store.
type Memory struct {
	mu    sync.Mutex
	users map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.users[models.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

func (m *Memory) Create(_ context.Context, u *models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	key := models.NormalizeEmail(u.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[key]; ok {
		return ErrExists
	}
	m.users[key] = b
	return nil
}

func (m *Memory) Save(_ context.Context, u *models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.users[models.NormalizeEmail(u.Email)] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) All(_ context.Context) (map[string]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.User, len(m.users))
	for email, b := range m.users {
		u, err := decode(b)
		if err != nil {
			return nil, err
		}
		out[email] = *u
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, email string, fn func(*models.User) error) (*models.User, error) {
	key := models.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.users[key]
	if !ok {
		return nil, ErrNotFound
	}
	u, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	nb, err := encode(u)
	if err != nil {
		return nil, err
	}
	m.users[key] = nb
	return u, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
