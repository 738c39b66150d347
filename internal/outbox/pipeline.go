package outbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/events"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
)

type Options struct {
	SessionID     string
	MaxCharacters int

	// Optional collaborators.
	Invalidator cache.Invalidator
	Hub         *events.Hub
	Drafts      DraftDeleter
}

// Pipeline runs submissions for one composition session, one at a time.
type Pipeline struct {
	mu    sync.Mutex
	state State

	posts PostWriter
	media MediaResolver

	sessionID     string
	maxCharacters int
	invalidator   cache.Invalidator
	hub           *events.Hub
	drafts        DraftDeleter

	pending sync.WaitGroup
}

func NewPipeline(posts PostWriter, resolver MediaResolver, opts Options) *Pipeline {
	if opts.MaxCharacters <= 0 {
		opts.MaxCharacters = DefaultMaxCharacters
	}
	return &Pipeline{
		state:         StateIdle,
		posts:         posts,
		media:         resolver,
		sessionID:     opts.SessionID,
		maxCharacters: opts.MaxCharacters,
		invalidator:   opts.Invalidator,
		hub:           opts.Hub,
		drafts:        opts.Drafts,
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) MaxCharacters() int {
	return p.maxCharacters
}

// Submit sends the composition in buf and req as user. It is rejected with
// model.ErrSubmissionInFlight while another call is running and with
// model.ErrAlreadySubmitted once a call succeeded. On failure the buffer keeps
// its content so the caller can retry.
func (p *Pipeline) Submit(ctx context.Context, user *model.User, buf *media.Buffer, req Request) (*Result, error) {
	if user == nil || user.ID == "" {
		return nil, model.ErrNotAuthenticated
	}

	if err := p.begin(req, buf.Len()); err != nil {
		return nil, err
	}

	log := outboxLogger.With().Str("session_id", p.sessionID).Str("post_type", string(req.PostType)).Logger()

	if err := p.media.PurgePendingDeletions(ctx, buf); err != nil {
		log.Warn().Err(err).Msg("Detached media not deleted")
		p.publish(events.Event{Kind: events.KindDeletionFailed, Err: err})
	}

	paths, err := p.media.UploadAll(ctx, buf)
	if err != nil {
		p.fail(err)
		return nil, err
	}

	p.transition(StateSubmitting, "")

	var (
		post *model.Post
		op   = "create"
	)
	if req.IsEdit() {
		op = "update"
		post, err = p.posts.UpdatePost(ctx, user.ID, req.PostID, req.Content, paths)
	} else {
		post, err = p.posts.CreatePost(ctx, user.ID, model.NewPost{
			PostType: req.PostType,
			ParentID: req.ParentID,
			Content:  req.Content,
			Medias:   paths,
		})
	}
	if err != nil {
		subErr := &model.SubmissionError{Op: op, PostID: req.PostID, Err: err}
		p.fail(subErr)
		return nil, subErr
	}

	p.transition(StateSucceeded, post.ID)
	log.Info().Str("post_id", string(post.ID)).Str("op", op).Int("media_count", len(paths)).Msg("Post submitted")

	p.invalidate(ctx, InvalidationKeys(req))
	p.deleteSourceDraft(ctx, req)

	return &Result{
		PostID:     post.ID,
		Post:       post,
		Created:    !req.IsEdit(),
		MediaPaths: paths,
	}, nil
}

// Wait blocks until invalidations issued by successful submissions are done.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

func (p *Pipeline) begin(req Request, mediaCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state.InFlight():
		return model.ErrSubmissionInFlight
	case p.state == StateSucceeded:
		return model.ErrAlreadySubmitted
	}

	if err := Validate(req, mediaCount, p.maxCharacters); err != nil {
		return err
	}

	p.setStateLocked(StateUploading, "", nil)
	return nil
}

func (p *Pipeline) transition(s State, id model.PostID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setStateLocked(s, id, nil)
}

func (p *Pipeline) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	outboxLogger.Error().Err(err).Str("session_id", p.sessionID).Str("from", string(p.state)).Msg("Submission failed")
	p.setStateLocked(StateFailed, "", err)
}

func (p *Pipeline) setStateLocked(s State, id model.PostID, err error) {
	p.state = s
	p.publish(events.Event{Kind: events.KindStateChanged, State: string(s), PostID: id, Err: err})
}

// invalidate runs in the background; the caller does not wait for it.
func (p *Pipeline) invalidate(ctx context.Context, keys []cache.Key) {
	if p.invalidator == nil {
		return
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.invalidator.Invalidate(context.WithoutCancel(ctx), keys...)
		outboxLogger.Debug().Strs("keys", names).Msg("Caches invalidated")
		p.publish(events.Event{Kind: events.KindInvalidated, Keys: names})
	}()
}

func (p *Pipeline) deleteSourceDraft(ctx context.Context, req Request) {
	if req.DraftID == "" || p.drafts == nil {
		return
	}

	if err := p.drafts.DeleteDraft(ctx, req.DraftID); err != nil {
		err = fmt.Errorf("error deleting submitted draft %s: %w", req.DraftID, err)
		outboxLogger.Warn().Err(err).Msg("Submitted draft left in place")
		p.publish(events.Event{Kind: events.KindDraftDeleteFail, Err: err})
	}
}

func (p *Pipeline) publish(ev events.Event) {
	if p.hub == nil {
		return
	}
	ev.SessionID = p.sessionID
	p.hub.Publish(ev)
}
