// Package model defines core data structures and types for the thread client.
package model

import (
	"fmt"
	"time"
)

type PostID string

type PostType string

const (
	PostTypePost  PostType = "post"
	PostTypeQuote PostType = "quote"
	PostTypeReply PostType = "reply"
)

func ParsePostType(s string) (PostType, error) {
	switch t := PostType(s); t {
	case PostTypePost, PostTypeQuote, PostTypeReply:
		return t, nil
	}
	return "", fmt.Errorf("unknown post type: %q", s)
}

func (t PostType) Valid() bool {
	_, err := ParsePostType(string(t))
	return err == nil
}

// RequiresParent reports whether posts of this type reference a parent post.
func (t PostType) RequiresParent() bool {
	return t == PostTypeQuote || t == PostTypeReply
}

type Post struct {
	ID PostID

	Owner    UserID
	PostType PostType

	// Empty for top-level posts.
	ParentID PostID

	Content string

	// Object-store paths, in display order.
	Medias []string

	// Used for change detection, computed over the stored (compressed) content.
	ContentHash string

	CreatedDate  time.Time
	ModifiedDate time.Time

	ReplyCount int
}

func (p *Post) IsTopLevel() bool {
	return p.ParentID == ""
}

// Deletion lists what deleting a post removed: the post and every reply or
// quote below it, with their media paths.
type Deletion struct {
	PostIDs []PostID
	Medias  []string
}

// NewPost is the payload handed to the backend when a post is created.
type NewPost struct {
	PostType PostType
	ParentID PostID
	Content  string
	Medias   []string
}

// CheckParent enforces that quotes and replies carry a parent and plain posts don't.
func CheckParent(t PostType, parent PostID) error {
	if !t.Valid() {
		return &ValidationError{Field: "post_type", Reason: fmt.Sprintf("unknown post type %q", t)}
	}
	if t.RequiresParent() && parent == "" {
		return &ValidationError{Field: "parent_id", Reason: fmt.Sprintf("%s requires a parent post", t)}
	}
	if !t.RequiresParent() && parent != "" {
		return &ValidationError{Field: "parent_id", Reason: "a top-level post cannot have a parent"}
	}
	return nil
}
