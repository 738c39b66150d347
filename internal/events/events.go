// Package events fans submission outcomes out to subscribers of a composition session.
package events

import (
	"sync"
	"time"

	"github.com/debemdeboas/the-thread/internal/model"
)

type Kind string

const (
	KindStateChanged    Kind = "state_changed"
	KindDeletionFailed  Kind = "deletion_failed"
	KindInvalidated     Kind = "invalidated"
	KindDraftSaved      Kind = "draft_saved"
	KindDraftDeleteFail Kind = "draft_delete_failed"
)

type Event struct {
	SessionID string
	Kind      Kind
	// State is set for KindStateChanged.
	State  string
	PostID model.PostID
	// Keys lists invalidated cache keys for KindInvalidated.
	Keys []string
	Err  error
	Time time.Time
}

type Subscriber struct {
	C         chan Event
	SessionID string
}

// Hub delivers events to subscribers of the event's session. Slow subscribers
// drop events rather than block the publisher.
type Hub struct {
	subscribers map[*Subscriber]bool
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
	}
}

func (h *Hub) Subscribe(sessionID string, buffer int) *Subscriber {
	s := &Subscriber{C: make(chan Event, buffer), SessionID: sessionID}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s] = true
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[s] {
		delete(h.subscribers, s)
		close(s.C)
	}
}

func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.SessionID == ev.SessionID {
			select {
			case s.C <- ev:
			default:
			}
		}
	}
}
