package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAddPreservesOrder(t *testing.T) {
	b := NewBuffer(Local("file:///a.jpg"))
	b.Add(Local("file:///b.mp4"), Local("file:///c.png"))

	items := b.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "file:///a.jpg", items[0].LocalURI)
	assert.Equal(t, "file:///b.mp4", items[1].LocalURI)
	assert.Equal(t, "file:///c.png", items[2].LocalURI)
	assert.Equal(t, 3, b.Len())
}

func TestBufferItemsIsACopy(t *testing.T) {
	b := NewBuffer(Local("file:///a.jpg"))
	items := b.Items()
	items[0].RemoteRef = "mutated"

	assert.Empty(t, b.Items()[0].RemoteRef)
}

func TestBufferRemoveAt(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		b := NewBuffer(Local("file:///a.jpg"))
		assert.ErrorIs(t, b.RemoveAt(1), ErrIndexOutOfRange)
		assert.ErrorIs(t, b.RemoveAt(-1), ErrIndexOutOfRange)
		assert.Equal(t, 1, b.Len())
	})

	t.Run("remaining entries keep their order", func(t *testing.T) {
		b := NewBuffer(Local("file:///a.jpg"), Local("file:///b.jpg"), Local("file:///c.jpg"))
		require.NoError(t, b.RemoveAt(1))

		items := b.Items()
		assert.Equal(t, "file:///a.jpg", items[0].LocalURI)
		assert.Equal(t, "file:///c.jpg", items[1].LocalURI)
	})

	t.Run("local entry records no deletion", func(t *testing.T) {
		b := NewBuffer(Local("file:///a.jpg"))
		require.NoError(t, b.RemoveAt(0))
		assert.Empty(t, b.PendingDeletions())
	})

	t.Run("remote entry records exactly one deletion", func(t *testing.T) {
		b := NewBuffer(FromRemote("r1.jpg", "u1"), FromRemote("r2.jpg", "u2"))
		require.NoError(t, b.RemoveAt(0))
		assert.Equal(t, []string{"r1.jpg"}, b.PendingDeletions())
	})

	t.Run("path still referenced is not recorded", func(t *testing.T) {
		b := NewBuffer(FromRemote("r1.jpg", "u1"), FromRemote("r1.jpg", "u1"))
		require.NoError(t, b.RemoveAt(0))
		assert.Empty(t, b.PendingDeletions())

		require.NoError(t, b.RemoveAt(0))
		assert.Equal(t, []string{"r1.jpg"}, b.PendingDeletions())
	})
}

func TestBufferReattachCancelsDeletion(t *testing.T) {
	b := NewBuffer(FromRemote("r1.jpg", "u1"))
	require.NoError(t, b.RemoveAt(0))
	require.Equal(t, []string{"r1.jpg"}, b.PendingDeletions())

	b.Add(FromRemote("r1.jpg", "u1"))
	assert.Empty(t, b.PendingDeletions())
}

func TestBufferReplaceAllResetsPending(t *testing.T) {
	b := NewBuffer(FromRemote("r1.jpg", "u1"))
	require.NoError(t, b.RemoveAt(0))

	b.ReplaceAll([]StagedMedia{Local("file:///n.jpg")})
	assert.Empty(t, b.PendingDeletions())
	assert.Equal(t, 1, b.Len())

	b.Clear()
	assert.Zero(t, b.Len())
}

func TestBufferResolve(t *testing.T) {
	b := NewBuffer(Local("file:///a.jpg"), FromRemote("old.jpg", "u"), Local("file:///c.jpg"))
	snapshot := b.Items()

	b.resolve(snapshot, []string{"new-a.jpg", "old.jpg", ""})

	items := b.Items()
	assert.Equal(t, "new-a.jpg", items[0].RemoteRef)
	assert.Equal(t, "old.jpg", items[1].RemoteRef)
	assert.Empty(t, items[2].RemoteRef)

	t.Run("entries changed since the snapshot are skipped", func(t *testing.T) {
		b := NewBuffer(Local("file:///a.jpg"), Local("file:///b.jpg"))
		snapshot := b.Items()
		require.NoError(t, b.RemoveAt(0))

		b.resolve(snapshot, []string{"ra.jpg", "rb.jpg"})
		assert.Empty(t, b.Items()[0].RemoteRef)
	})
}
