package media

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrIndexOutOfRange = errors.New("media index out of range")

// Buffer is the ordered set of attachments owned by one composition session.
// It also remembers uploaded objects the user detached so they can be purged.
type Buffer struct {
	mu      sync.Mutex
	items   []StagedMedia
	pending []string
}

func NewBuffer(items ...StagedMedia) *Buffer {
	b := &Buffer{}
	b.Add(items...)
	return b
}

// Add appends assets in the given order.
func (b *Buffer) Add(assets ...StagedMedia) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range assets {
		if a.RemoteRef != "" {
			// Re-attaching a detached object cancels its deletion.
			b.pending = slices.DeleteFunc(b.pending, func(p string) bool { return p == a.RemoteRef })
		}
		b.items = append(b.items, a)
	}
}

func (b *Buffer) RemoveAt(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(b.items))
	}

	removed := b.items[index]
	b.items = slices.Delete(b.items, index, index+1)

	if removed.RemoteRef != "" && !b.referencedLocked(removed.RemoteRef) && !slices.Contains(b.pending, removed.RemoteRef) {
		b.pending = append(b.pending, removed.RemoteRef)
		mediaLogger.Debug().Str("path", removed.RemoteRef).Msg("Detached media staged for deletion")
	}
	return nil
}

// ReplaceAll resets the buffer, including its pending deletions.
func (b *Buffer) ReplaceAll(assets []StagedMedia) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = slices.Clone(assets)
	b.pending = nil
}

// Clear drops every item without recording deletions. Used after a successful submission.
func (b *Buffer) Clear() {
	b.ReplaceAll(nil)
}

func (b *Buffer) Items() []StagedMedia {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Buffer) PendingDeletions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.pending)
}

func (b *Buffer) takePending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := b.pending
	b.pending = nil
	return paths
}

// resolve writes uploaded refs back into the entries they were produced from.
// Entries moved or removed since the snapshot are left alone.
func (b *Buffer) resolve(snapshot []StagedMedia, refs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ref := range refs {
		if ref == "" || i >= len(b.items) || snapshot[i].RemoteRef != "" {
			continue
		}
		if b.items[i].LocalURI == snapshot[i].LocalURI && b.items[i].RemoteRef == "" {
			b.items[i].RemoteRef = ref
		}
	}
}

func (b *Buffer) referencedLocked(path string) bool {
	return slices.ContainsFunc(b.items, func(m StagedMedia) bool { return m.RemoteRef == path })
}
