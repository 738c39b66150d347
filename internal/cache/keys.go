package cache

import (
	"context"
	"strconv"

	"github.com/debemdeboas/the-thread/internal/model"
)

type KeyKind string

const (
	KindPosts   KeyKind = "posts"
	KindReposts KeyKind = "reposts"
	KindLikes   KeyKind = "likes"
)

// Key identifies a cached read. A Key with an empty ID addresses every entry of
// its kind, so invalidating Feed() also drops cached single posts.
type Key struct {
	Kind KeyKind
	ID   string
}

// Feed is the global post feed.
func Feed() Key {
	return Key{Kind: KindPosts}
}

// FeedPage is one page of the feed. It is a posts key, so invalidating Feed()
// drops every page.
func FeedPage(limit int) Key {
	return Key{Kind: KindPosts, ID: "?limit=" + strconv.Itoa(limit)}
}

func Post(id model.PostID) Key {
	return Key{Kind: KindPosts, ID: string(id)}
}

// Reposts is the quote/repost aggregate for a parent post.
func Reposts(parent model.PostID) Key {
	return Key{Kind: KindReposts, ID: string(parent)}
}

// Likes is the like count of a post.
func Likes(id model.PostID) Key {
	return Key{Kind: KindLikes, ID: string(id)}
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "[" + k.ID + "]"
}

// Matches reports whether invalidating k should drop the entry stored under other.
func (k Key) Matches(other Key) bool {
	if k.Kind != other.Kind {
		return false
	}
	return k.ID == "" || k.ID == other.ID
}

// Invalidator is the only contract mutations have with read caches.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...Key)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, keys ...Key)

func (f InvalidatorFunc) Invalidate(ctx context.Context, keys ...Key) {
	f(ctx, keys...)
}

// Invalidators fans one invalidation out to several caches.
type Invalidators []Invalidator

func (is Invalidators) Invalidate(ctx context.Context, keys ...Key) {
	for _, i := range is {
		i.Invalidate(ctx, keys...)
	}
}
