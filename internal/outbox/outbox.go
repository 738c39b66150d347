// Package outbox turns a composition into a stored post: detached media are
// purged, staged media uploaded, the post created or updated, and the read
// caches that depend on it invalidated.
package outbox

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
)

var outboxLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	outboxLogger = l
}

const DefaultMaxCharacters = 200

type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) InFlight() bool {
	return s == StateUploading || s == StateSubmitting
}

// PostWriter is the backend half the pipeline writes to.
type PostWriter interface {
	CreatePost(ctx context.Context, owner model.UserID, p model.NewPost) (*model.Post, error)
	UpdatePost(ctx context.Context, owner model.UserID, id model.PostID, content string, medias []string) (*model.Post, error)
}

// MediaResolver is implemented by *media.Uploader.
type MediaResolver interface {
	PurgePendingDeletions(ctx context.Context, buf *media.Buffer) error
	UploadAll(ctx context.Context, buf *media.Buffer) ([]string, error)
}

type DraftDeleter interface {
	DeleteDraft(ctx context.Context, id editor.DraftID) error
}

type Request struct {
	Content  string
	PostType model.PostType
	ParentID model.PostID

	// PostID selects update semantics.
	PostID model.PostID
	// DraftID is the draft this submission was resumed from. It is deleted
	// once the post is stored.
	DraftID editor.DraftID
}

func (r Request) IsEdit() bool {
	return r.PostID != ""
}

type Result struct {
	PostID     model.PostID
	Post       *model.Post
	Created    bool
	MediaPaths []string
}

// Validate rejects compositions that must not reach the network.
func Validate(req Request, mediaCount, maxCharacters int) error {
	if strings.TrimSpace(req.Content) == "" && mediaCount == 0 {
		return &model.ValidationError{Field: "content", Reason: "a post needs text or media"}
	}
	if n := utf8.RuneCountInString(req.Content); maxCharacters > 0 && n > maxCharacters {
		return &model.ValidationError{Field: "content", Reason: fmt.Sprintf("%d characters exceeds the limit of %d", n, maxCharacters)}
	}
	return model.CheckParent(req.PostType, req.ParentID)
}

// InvalidationKeys lists the cached reads made stale by a successful submission.
func InvalidationKeys(req Request) []cache.Key {
	keys := []cache.Key{cache.Feed()}
	if req.IsEdit() {
		keys = append(keys, cache.Post(req.PostID))
	}
	if req.ParentID != "" {
		keys = append(keys, cache.Reposts(req.ParentID), cache.Post(req.ParentID))
	}
	return keys
}
