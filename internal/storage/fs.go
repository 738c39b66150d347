package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps objects as files under a root directory. It backs local
// development and the CLI when no bucket is configured.
type FSStore struct { // implements ObjectStore
	root          string
	publicBaseURL string
}

func NewFSStore(root, publicBaseURL string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("error creating %s: %w", abs, err)
	}

	if publicBaseURL == "" {
		publicBaseURL = "file://" + filepath.ToSlash(abs)
	}

	return &FSStore{root: abs, publicBaseURL: publicBaseURL}, nil
}

func (s *FSStore) resolve(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return filepath.Join(s.root, path), nil
}

func (s *FSStore) Upload(ctx context.Context, path string, body io.Reader, _ int64, _ string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), target)
}

func (s *FSStore) Delete(_ context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		target, err := s.resolve(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("error deleting %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (s *FSStore) Exists(_ context.Context, path string) (bool, error) {
	target, err := s.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(target)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FSStore) PublicURL(path string) string {
	return joinURL(s.publicBaseURL, path)
}
