// Package session holds the bearer token of the signed-in user.
//
// Exactly one value is persisted, under TokenKey. The profile returned at
// login is kept in memory only.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const TokenKey = "token"

// Backend persists string values across program runs.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Session struct {
	backend Backend

	mu    sync.RWMutex
	token string
	user  *model.User
}

func New(backend Backend) *Session {
	return &Session{backend: backend}
}

// Load reads the persisted token into memory.
func (s *Session) Load(ctx context.Context) error {
	token, ok, err := s.backend.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.token = token
	} else {
		s.token = ""
	}
	return nil
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.backend.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	copied := *user
	s.user = &copied
}

func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Clear forgets the token and the profile. The in-memory copy is dropped even
// when the backend fails so no further request carries the old token.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
