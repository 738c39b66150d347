// Package editor persists unsent compositions so they survive restarts.
package editor

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

var ErrDraftNotFound = errors.New("draft not found")

type DraftID string

// Composition holds the mutable fields of a draft.
type Composition struct {
	Content  string
	Medias   []media.StagedMedia
	PostType model.PostType
	ParentID model.PostID

	// Set when the draft resumes an edit of an existing post.
	PostID model.PostID
}

func (c Composition) Validate() error {
	return model.CheckParent(c.PostType, c.ParentID)
}

type Draft struct {
	ID        DraftID             `json:"id"`
	Content   string              `json:"content"`
	Medias    []media.StagedMedia `json:"medias"`
	PostType  model.PostType      `json:"post_type"`
	ParentID  model.PostID        `json:"parentId,omitempty"`
	PostID    model.PostID        `json:"postId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// IsEdit reports whether submitting this draft updates an existing post.
func (d *Draft) IsEdit() bool {
	return d.PostID != ""
}

func (d *Draft) Composition() Composition {
	return Composition{
		Content:  d.Content,
		Medias:   slices.Clone(d.Medias),
		PostType: d.PostType,
		ParentID: d.ParentID,
		PostID:   d.PostID,
	}
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Medias = slices.Clone(d.Medias)
	return &c
}

type Repository interface {
	// AddDraft stores c under a fresh id at the head of the list.
	AddDraft(ctx context.Context, c Composition) (*Draft, error)
	// UpdateDraft replaces every field but the id and creation time.
	UpdateDraft(ctx context.Context, id DraftID, c Composition) (*Draft, error)
	// DeleteDraft is a no-op for unknown ids.
	DeleteDraft(ctx context.Context, id DraftID) error
	GetDraft(ctx context.Context, id DraftID) (*Draft, error)
	// ListDrafts returns drafts most recent first.
	ListDrafts(ctx context.Context) ([]*Draft, error)
}

// KV is the persistent storage behind a draft Store. Load returns nil data
// and no error for a key that was never saved.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
