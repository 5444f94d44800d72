package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
)

// Persisted keys. They are written and cleared together.
const (
	KeyUser      = "user"
	KeyAuthToken = "authToken"
)

var ErrClosed = errors.New("session closed")

// Session is the single source of truth for "who is signed in" on the
// client. It is opened once, handed to collaborators and closed on teardown.
type Session struct {
	store Store

	mu     sync.RWMutex
	user   *models.User
	token  string
	closed bool
}

// Open loads the persisted session from store. A stored profile that cannot
// be decoded, or a profile without its token, is treated as logged out.
func Open(ctx context.Context, store Store) (*Session, error) {
	s := &Session{store: store}
	raw, ok, err := store.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	if !ok {
		return s, nil
	}
	token, hasToken, err := store.Get(ctx, KeyAuthToken)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" || !hasToken || token == "" {
		logger.Warnf("discarding unusable stored session")
		return s, nil
	}
	s.user = &u
	s.token = token
	return s, nil
}

// CurrentUser returns a copy of the signed-in profile, or nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token of the signed-in user, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// SignIn persists the profile and token, replacing any previous session.
func (s *Session) SignIn(ctx context.Context, u *models.User, token string) error {
	if u == nil || u.ID == "" || token == "" {
		return errors.New("sign in requires a user and a token")
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.store.Set(ctx, KeyAuthToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.store.Set(ctx, KeyUser, string(b)); err != nil {
		_ = s.store.Delete(ctx, KeyAuthToken)
		return fmt.Errorf("store user: %w", err)
	}
	cp := *u
	s.user = &cp
	s.token = token
	return nil
}

// SignOut clears both keys. The in-memory state is cleared even when the
// store fails so the process never keeps acting as the old user.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	if s.closed {
		return ErrClosed
	}
	if err := s.store.Delete(ctx, KeyUser, KeyAuthToken); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close detaches the session from its store. Later writes fail with
// ErrClosed; reads keep returning the last known state.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
