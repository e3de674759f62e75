// Package session holds who is signed in on this terminal.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sudo-init-do/tgwork/internal/models"
)

// Session is the current user, their token and a loading flag. It is safe
// for concurrent use.
type Session struct {
	mu      sync.RWMutex
	user    *models.User
	token   string
	loading bool
}

func New() *Session {
	return &Session{}
}

// Current returns a copy of the signed-in user, or nil.
func (s *Session) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the user and token. An empty token keeps the old one.
func (s *Session) Set(u *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u != nil {
		cp := u.Sanitized()
		s.user = &cp
	} else {
		s.user = nil
	}
	if token != "" {
		s.token = token
	}
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.loading = false
}

func (s *Session) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// file is the on-disk form. Only identity is kept; everything else is
// fetched fresh from the server.
type file struct {
	Token string     `yaml:"token"`
	User  *savedUser `yaml:"user,omitempty"`
}

type savedUser struct {
	Email       string             `yaml:"email"`
	Name        string             `yaml:"name"`
	AccountType models.AccountType `yaml:"account_type"`
}

// DefaultPath is $TGWORK_SESSION, or ~/.tgwork/session.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("TGWORK_SESSION"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home dir: %w", err)
	}
	return filepath.Join(home, ".tgwork", "session.yaml"), nil
}

// Load reads a session file. A missing file is an empty session.
func Load(path string) (*Session, error) {
	s := New()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	s.token = f.Token
	if f.User != nil && f.User.Email != "" {
		s.user = &models.User{
			Email:       f.User.Email,
			Name:        f.User.Name,
			AccountType: f.User.AccountType,
		}
	}
	return s, nil
}

// Save writes the session with owner-only permissions.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	var f file
	f.Token = s.token
	if s.user != nil {
		f.User = &savedUser{Email: s.user.Email, Name: s.user.Name, AccountType: s.user.AccountType}
	}
	s.mu.RUnlock()

	b, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}
