package media

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Opener reads the bytes behind a local media URI.
type Opener interface {
	Open(uri string) (io.ReadCloser, int64, error)
}

type OpenerFunc func(uri string) (io.ReadCloser, int64, error)

func (f OpenerFunc) Open(uri string) (io.ReadCloser, int64, error) {
	return f(uri)
}

// FileOpener opens file:// URIs and plain filesystem paths.
type FileOpener struct{}

func (FileOpener) Open(uri string) (io.ReadCloser, int64, error) {
	p := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid file uri %q: %w", uri, err)
		}
		p = u.Path
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
