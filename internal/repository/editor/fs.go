package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSKV stores each key as <dir>/<key>.json.
type FSKV struct { // implements KV
	dir string
}

func NewFSKV(dir string) (*FSKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating drafts directory %s: %w", dir, err)
	}
	return &FSKV{dir: dir}, nil
}

func (f *FSKV) path(key string) (string, error) {
	name := key + ".json"
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, name), nil
}

func (f *FSKV) Load(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save writes to a temp file and renames it over the old value so a crash
// never leaves a half written list.
func (f *FSKV) Save(_ context.Context, key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
