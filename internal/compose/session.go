// Package compose models one composition surface: the text being typed, its
// staged media, and what happens when the user submits or walks away.
package compose

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/auth"
	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/events"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
	"github.com/debemdeboas/the-thread/internal/outbox"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
)

var composeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	composeLogger = l
}

// Decision is the user's answer when leaving a surface with unsaved changes.
type Decision int

const (
	DecisionSave Decision = iota
	DecisionDiscard
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionSave:
		return "save"
	case DecisionDiscard:
		return "discard"
	case DecisionCancel:
		return "cancel"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Deps are the collaborators shared by every session of the process.
type Deps struct {
	Uploader      *media.Uploader
	Posts         outbox.PostWriter
	Drafts        editor.Repository
	Auth          *auth.Session
	Invalidator   cache.Invalidator
	Hub           *events.Hub
	MaxCharacters int
}

type Session struct {
	mu sync.Mutex

	id       string
	deps     Deps
	buf      *media.Buffer
	pipeline *outbox.Pipeline

	content        string
	initialContent string
	initialMedia   []media.StagedMedia

	postType model.PostType
	parentID model.PostID
	postID   model.PostID
	draftID  editor.DraftID
}

func newSession(deps Deps, postType model.PostType, parentID model.PostID) *Session {
	id := uuid.New().String()
	return &Session{
		id:   id,
		deps: deps,
		buf:  media.NewBuffer(),
		pipeline: outbox.NewPipeline(deps.Posts, deps.Uploader, outbox.Options{
			SessionID:     id,
			MaxCharacters: deps.MaxCharacters,
			Invalidator:   deps.Invalidator,
			Hub:           deps.Hub,
			Drafts:        deps.Drafts,
		}),
		postType: postType,
		parentID: parentID,
	}
}

// New starts a fresh composition of the given type.
func New(deps Deps, postType model.PostType, parentID model.PostID) (*Session, error) {
	if err := model.CheckParent(postType, parentID); err != nil {
		return nil, err
	}
	return newSession(deps, postType, parentID), nil
}

// FromDraft resumes a saved draft. Media that no longer exist locally or in
// the object store are dropped and returned.
func FromDraft(ctx context.Context, deps Deps, d *editor.Draft) (*Session, []media.StagedMedia) {
	s := newSession(deps, d.PostType, d.ParentID)
	s.postID = d.PostID
	s.draftID = d.ID
	s.content = d.Content
	s.initialContent = d.Content

	kept, dropped := deps.Uploader.Revalidate(ctx, d.Medias)
	s.buf.ReplaceAll(kept)
	s.initialMedia = slices.Clone(kept)

	composeLogger.Debug().Str("session_id", s.id).Str("draft_id", string(d.ID)).Int("dropped_media", len(dropped)).Msg("Draft resumed")
	return s, dropped
}

// ForEdit opens an existing post for editing, staging its stored media.
func ForEdit(deps Deps, p *model.Post) *Session {
	s := newSession(deps, p.PostType, p.ParentID)
	s.postID = p.ID
	s.content = p.Content
	s.initialContent = p.Content

	items := make([]media.StagedMedia, 0, len(p.Medias))
	for _, path := range p.Medias {
		items = append(items, media.FromRemote(path, deps.Uploader.PublicURL(path)))
	}
	s.buf.ReplaceAll(items)
	s.initialMedia = slices.Clone(items)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Session) SetContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

func (s *Session) AddMedia(items ...media.StagedMedia) {
	s.buf.Add(items...)
}

func (s *Session) RemoveMedia(index int) error {
	return s.buf.RemoveAt(index)
}

func (s *Session) Media() []media.StagedMedia {
	return s.buf.Items()
}

func (s *Session) PendingDeletions() []string {
	return s.buf.PendingDeletions()
}

func (s *Session) PostType() model.PostType {
	return s.postType
}

func (s *Session) ParentID() model.PostID {
	return s.parentID
}

func (s *Session) PostID() model.PostID {
	return s.postID
}

func (s *Session) DraftID() editor.DraftID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

func (s *Session) IsEdit() bool {
	return s.postID != ""
}

func (s *Session) State() outbox.State {
	return s.pipeline.State()
}

// CharactersLeft goes negative once the text is over the limit.
func (s *Session) CharactersLeft() int {
	return s.pipeline.MaxCharacters() - utf8.RuneCountInString(s.Content())
}

// CanSubmit mirrors the checks Submit runs before touching the network.
func (s *Session) CanSubmit() bool {
	if s.State().InFlight() {
		return false
	}
	return outbox.Validate(s.request(), s.buf.Len(), s.pipeline.MaxCharacters()) == nil
}

// HasUnsavedChanges reports whether leaving now would lose input.
func (s *Session) HasUnsavedChanges() bool {
	if s.State().InFlight() {
		return false
	}

	s.mu.Lock()
	contentChanged := s.content != s.initialContent
	initial := s.initialMedia
	s.mu.Unlock()

	return contentChanged || !slices.Equal(s.buf.Items(), initial)
}

// Leave applies the user's decision about unsaved input and reports whether
// navigation may proceed.
func (s *Session) Leave(ctx context.Context, d Decision) (bool, error) {
	if !s.HasUnsavedChanges() {
		return true, nil
	}

	switch d {
	case DecisionCancel:
		return false, nil
	case DecisionDiscard:
		composeLogger.Debug().Str("session_id", s.id).Msg("Unsaved changes discarded")
		return true, nil
	case DecisionSave:
		if _, err := s.SaveDraft(ctx); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown decision %v", d)
	}
}

// SaveDraft stores the composition, updating the draft it was resumed from.
func (s *Session) SaveDraft(ctx context.Context) (*editor.Draft, error) {
	if s.deps.Drafts == nil {
		return nil, errors.New("no draft store configured")
	}

	c := s.composition()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		draft *editor.Draft
		err   error
	)
	if s.draftID != "" {
		draft, err = s.deps.Drafts.UpdateDraft(ctx, s.draftID, c)
		if errors.Is(err, editor.ErrDraftNotFound) {
			draft, err = s.deps.Drafts.AddDraft(ctx, c)
		}
	} else {
		draft, err = s.deps.Drafts.AddDraft(ctx, c)
	}
	if err != nil {
		return nil, fmt.Errorf("error saving draft: %w", err)
	}

	s.draftID = draft.ID
	s.initialContent = c.Content
	s.initialMedia = slices.Clone(c.Medias)

	if s.deps.Hub != nil {
		s.deps.Hub.Publish(events.Event{SessionID: s.id, Kind: events.KindDraftSaved})
	}
	composeLogger.Info().Str("session_id", s.id).Str("draft_id", string(draft.ID)).Msg("Draft saved")
	return draft, nil
}

// Submit sends the composition as the signed-in user. On success the staged
// media are cleared and the session has no unsaved changes left.
func (s *Session) Submit(ctx context.Context) (*outbox.Result, error) {
	var user *model.User
	if s.deps.Auth != nil {
		user = s.deps.Auth.CurrentUser()
	}
	if user == nil {
		return nil, model.ErrNotAuthenticated
	}

	req := s.request()
	res, err := s.pipeline.Submit(ctx, user, s.buf, req)
	if err != nil {
		return nil, err
	}

	s.buf.Clear()

	s.mu.Lock()
	s.initialContent = req.Content
	s.initialMedia = nil
	// The pipeline deleted the source draft.
	s.draftID = ""
	s.mu.Unlock()

	return res, nil
}

// Wait blocks until background cache invalidations have run.
func (s *Session) Wait() {
	s.pipeline.Wait()
}

func (s *Session) request() outbox.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return outbox.Request{
		Content:  s.content,
		PostType: s.postType,
		ParentID: s.parentID,
		PostID:   s.postID,
		DraftID:  s.draftID,
	}
}

func (s *Session) composition() editor.Composition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editor.Composition{
		Content:  s.content,
		Medias:   s.buf.Items(),
		PostType: s.postType,
		ParentID: s.parentID,
		PostID:   s.postID,
	}
}
