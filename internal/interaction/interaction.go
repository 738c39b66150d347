// Package interaction toggles likes and reposts and keeps the read caches honest.
package interaction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/model"
)

var interactionLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	interactionLogger = l
}

type Toggler interface {
	ToggleLike(ctx context.Context, user model.UserID, id model.PostID) (bool, error)
	ToggleRepost(ctx context.Context, user model.UserID, id model.PostID) (bool, error)
}

type Service struct {
	repo        Toggler
	invalidator cache.Invalidator
}

func NewService(repo Toggler, invalidator cache.Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// ToggleLike likes the post, or unlikes it if the user already did.
func (s *Service) ToggleLike(ctx context.Context, user *model.User, id model.PostID) (bool, error) {
	if user == nil {
		return false, model.ErrNotAuthenticated
	}

	liked, err := s.repo.ToggleLike(ctx, user.ID, id)
	if err != nil {
		return false, err
	}

	s.invalidate(ctx, cache.Post(id), cache.Likes(id))
	interactionLogger.Debug().Str("post_id", string(id)).Bool("liked", liked).Msg("Like toggled")
	return liked, nil
}

// ToggleRepost reposts the post, or removes the user's repost.
func (s *Service) ToggleRepost(ctx context.Context, user *model.User, id model.PostID) (bool, error) {
	if user == nil {
		return false, model.ErrNotAuthenticated
	}

	reposted, err := s.repo.ToggleRepost(ctx, user.ID, id)
	if err != nil {
		return false, err
	}

	s.invalidate(ctx, cache.Post(id), cache.Reposts(id))
	interactionLogger.Debug().Str("post_id", string(id)).Bool("reposted", reposted).Msg("Repost toggled")
	return reposted, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...cache.Key) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, keys...)
	}
}
