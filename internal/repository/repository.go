// Package repository stores posts and their interactions.
package repository

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/model"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	CreatePost(ctx context.Context, owner model.UserID, p model.NewPost) (*model.Post, error)
	// UpdatePost replaces content and media of a post owned by owner.
	UpdatePost(ctx context.Context, owner model.UserID, id model.PostID, content string, medias []string) (*model.Post, error)
	DeletePost(ctx context.Context, owner model.UserID, id model.PostID) (*model.Deletion, error)

	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
	// ListPosts returns the feed, newest first. limit <= 0 means no limit.
	ListPosts(ctx context.Context, limit int) ([]model.Post, error)
	ListReplies(ctx context.Context, parent model.PostID) ([]model.Post, error)

	// ToggleLike and ToggleRepost return the state after the toggle.
	ToggleLike(ctx context.Context, user model.UserID, id model.PostID) (bool, error)
	ToggleRepost(ctx context.Context, user model.UserID, id model.PostID) (bool, error)
	// RepostCount counts bare reposts and quotes of a post.
	RepostCount(ctx context.Context, id model.PostID) (int, error)
	LikeCount(ctx context.Context, id model.PostID) (int, error)
}
