// Package storage adapts object stores holding uploaded post media.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

var storageLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storageLogger = l
}

// ObjectStore is the media bucket as seen by the client.
type ObjectStore interface {
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error

	// Delete removes all paths in as few calls as the backend allows.
	// Missing objects are not an error.
	Delete(ctx context.Context, paths []string) error

	Exists(ctx context.Context, path string) (bool, error)

	// PublicURL derives a displayable URL without touching the network.
	PublicURL(path string) string
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
