package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/debemdeboas/the-thread/internal/model"
)

type Listener func(user *model.User)

// Session is the process-wide auth state. It is created once at startup and
// passed to whoever needs the current user.
type Session struct {
	mu        sync.RWMutex
	user      *model.User
	listeners map[int]Listener
	nextID    int
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]Listener)}
}

// Init loads the initial user from p and notifies listeners.
func (s *Session) Init(ctx context.Context, p Provider) error {
	user, err := p.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("error resolving current user: %w", err)
	}

	s.SetUser(user)
	if user == nil {
		authLogger.Info().Msg("Session started without a user")
	} else {
		authLogger.Info().Str("user_id", string(user.ID)).Msg("Session started")
	}
	return nil
}

// SetUser replaces the current user (nil signs out) and calls every listener.
func (s *Session) SetUser(user *model.User) {
	s.mu.Lock()
	if user != nil {
		u := *user
		user = &u
	}
	s.user = user
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(s.CurrentUser())
	}
}

// CurrentUser returns a copy of the signed-in user or nil.
func (s *Session) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// RequireUser is CurrentUser that fails with model.ErrNotAuthenticated.
func (s *Session) RequireUser() (*model.User, error) {
	if u := s.CurrentUser(); u != nil {
		return u, nil
	}
	return nil, model.ErrNotAuthenticated
}

// OnChange registers l for user changes and returns a function removing it.
func (s *Session) OnChange(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
