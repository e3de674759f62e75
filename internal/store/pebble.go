package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/sudo-init-do/tgwork/internal/models"
)

const userPrefix = "user/"

// Pebble stores each user under user/<email> in an embedded LSM.
// Writes are serialized so Update is a safe read-modify-write.
type Pebble struct {
	db *pebble.DB
	mu sync.Mutex
}

// OpenPebble opens (or creates) the store in dir. opts may be nil.
func OpenPebble(dir string, opts *pebble.Options) (*Pebble, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", dir, err)
	}
	return &Pebble{db: db}, nil
}

func keyFor(email string) []byte {
	return []byte(userPrefix + models.NormalizeEmail(email))
}

func (p *Pebble) get(email string) (*models.User, error) {
	val, closer, err := p.db.Get(keyFor(email))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return decode(val)
}

func (p *Pebble) put(u *models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	return p.db.Set(keyFor(u.Email), b, pebble.Sync)
}

func (p *Pebble) Get(_ context.Context, email string) (*models.User, error) {
	return p.get(email)
}

func (p *Pebble) Create(_ context.Context, u *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.get(u.Email); err == nil {
		return ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return p.put(u)
}

func (p *Pebble) Save(_ context.Context, u *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.put(u)
}

func (p *Pebble) All(_ context.Context) (map[string]models.User, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(userPrefix),
		// '0' sorts right after '/'
		UpperBound: []byte("user0"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[string]models.User)
	for iter.First(); iter.Valid(); iter.Next() {
		u, err := decode(iter.Value())
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(string(iter.Key()), userPrefix)] = *u
	}
	return out, iter.Error()
}

func (p *Pebble) Update(_ context.Context, email string, fn func(*models.User) error) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.get(email)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := p.put(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *Pebble) Ping(context.Context) error { return nil }

func (p *Pebble) Close() error {
	return p.db.Close()
}
