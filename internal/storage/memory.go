package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct { // implements ObjectStore
	mu      sync.Mutex
	objects map[string]memoryObject

	uploads int
	deletes int

	// UploadHook, when set, runs before each upload; a non-nil error fails it.
	UploadHook func(path string) error
	// DeleteHook, when set, runs before each batch delete.
	DeleteHook func(paths []string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Upload(ctx context.Context, path string, body io.Reader, _ int64, contentType string) error {
	if m.UploadHook != nil {
		if err := m.UploadHook(path); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("error reading body for %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: buf.Bytes(), contentType: contentType}
	m.uploads++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, paths []string) error {
	if m.DeleteHook != nil {
		if err := m.DeleteHook(paths); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.objects, p)
	}
	m.deletes++
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok, nil
}

func (m *MemoryStore) PublicURL(path string) string {
	return joinURL("memory://media", path)
}

// Put stores an object directly, bypassing the upload counter.
func (m *MemoryStore) Put(path string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: data, contentType: contentType}
}

func (m *MemoryStore) Object(path string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	return obj.data, obj.contentType, ok
}

func (m *MemoryStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Uploads is the number of successful Upload calls.
func (m *MemoryStore) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// Deletes is the number of batch Delete calls.
func (m *MemoryStore) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}
