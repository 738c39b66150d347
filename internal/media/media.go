// Package media stages locally picked attachments and resolves them to
// object store paths before a post is sent.
package media

import (
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var mediaLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	mediaLogger = l
}

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// StagedMedia is one attachment of a composition. RemoteRef is set once the
// bytes live in the object store.
type StagedMedia struct {
	LocalURI  string `json:"uri"`
	Kind      Kind   `json:"type"`
	MimeType  string `json:"mimeType,omitempty"`
	RemoteRef string `json:"remoteRef,omitempty"`
}

func (m StagedMedia) IsRemote() bool {
	return m.RemoteRef != ""
}

var remoteImagePattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"m4v":  "video/x-m4v",
}

// Local builds an entry for a file the user just picked.
func Local(uri string) StagedMedia {
	mimeType, ok := mimeTypes[extension(uri)]
	if !ok {
		mimeType = "video/mp4"
	}

	kind := KindVideo
	if strings.HasPrefix(mimeType, "image/") {
		kind = KindImage
	}

	return StagedMedia{LocalURI: uri, Kind: kind, MimeType: mimeType}
}

// FromRemote builds an entry for media already attached to a stored post.
func FromRemote(remotePath, publicURL string) StagedMedia {
	m := StagedMedia{
		LocalURI:  publicURL,
		Kind:      KindVideo,
		MimeType:  "video/mp4",
		RemoteRef: remotePath,
	}
	if remoteImagePattern.MatchString(remotePath) {
		m.Kind = KindImage
		m.MimeType = "image/jpeg"
	}
	return m
}

func extension(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(uri), "."))
}

// objectExtension picks the extension used for the uploaded object name.
func objectExtension(m StagedMedia) string {
	if ext := extension(m.LocalURI); ext != "" {
		return ext
	}
	if m.Kind == KindImage {
		return "jpg"
	}
	return "mp4"
}
