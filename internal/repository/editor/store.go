package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps the draft list in memory and writes the whole list back to its
// KV under a single key after every change.
type Store struct { // implements Repository
	mu     sync.Mutex
	kv     KV
	key    string
	drafts []*Draft

	now   func() time.Time
	newID func() DraftID
}

// Open loads the drafts saved under key.
func Open(ctx context.Context, kv KV, key string) (*Store, error) {
	s := &Store{
		kv:    kv,
		key:   key,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() DraftID { return DraftID(uuid.New().String()) },
	}

	data, err := kv.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error loading drafts from %s: %w", key, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.drafts); err != nil {
			return nil, fmt.Errorf("error decoding drafts from %s: %w", key, err)
		}
	}

	editorLogger.Debug().Str("key", key).Int("drafts", len(s.drafts)).Msg("Drafts loaded")
	return s, nil
}

func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) AddDraft(ctx context.Context, c Composition) (*Draft, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	draft := &Draft{
		ID:        s.newID(),
		Content:   c.Content,
		Medias:    slices.Clone(c.Medias),
		PostType:  c.PostType,
		ParentID:  c.ParentID,
		PostID:    c.PostID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := append([]*Draft{draft}, s.drafts...)
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.drafts = next

	editorLogger.Info().Str("draft_id", string(draft.ID)).Msg("Draft added")
	return draft.clone(), nil
}

func (s *Store) UpdateDraft(ctx context.Context, id DraftID, c Composition) (*Draft, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}

	old := s.drafts[i]
	updated := &Draft{
		ID:        old.ID,
		Content:   c.Content,
		Medias:    slices.Clone(c.Medias),
		PostType:  c.PostType,
		ParentID:  c.ParentID,
		PostID:    c.PostID,
		CreatedAt: old.CreatedAt,
		UpdatedAt: s.now(),
	}

	next := slices.Clone(s.drafts)
	next[i] = updated
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.drafts = next

	editorLogger.Info().Str("draft_id", string(id)).Msg("Draft updated")
	return updated.clone(), nil
}

func (s *Store) DeleteDraft(ctx context.Context, id DraftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(s.drafts), i, i+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.drafts = next

	editorLogger.Info().Str("draft_id", string(id)).Msg("Draft deleted")
	return nil
}

func (s *Store) GetDraft(_ context.Context, id DraftID) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return s.drafts[i].clone(), nil
}

func (s *Store) ListDrafts(_ context.Context) ([]*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts := make([]*Draft, len(s.drafts))
	for i, d := range s.drafts {
		drafts[i] = d.clone()
	}
	return drafts, nil
}

func (s *Store) indexLocked(id DraftID) int {
	return slices.IndexFunc(s.drafts, func(d *Draft) bool { return d.ID == id })
}

func (s *Store) persist(ctx context.Context, drafts []*Draft) error {
	if drafts == nil {
		drafts = []*Draft{}
	}

	data, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("error encoding drafts: %w", err)
	}
	if err := s.kv.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("error saving drafts to %s: %w", s.key, err)
	}
	return nil
}
