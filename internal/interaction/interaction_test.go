package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debemdeboas/the-thread/internal/cache"
	"github.com/debemdeboas/the-thread/internal/model"
)

type fakeToggler struct {
	likes   map[model.PostID]bool
	reposts map[model.PostID]bool
	err     error
}

func (f *fakeToggler) ToggleLike(_ context.Context, _ model.UserID, id model.PostID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.likes[id] = !f.likes[id]
	return f.likes[id], nil
}

func (f *fakeToggler) ToggleRepost(_ context.Context, _ model.UserID, id model.PostID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.reposts[id] = !f.reposts[id]
	return f.reposts[id], nil
}

func newService() (*Service, *fakeToggler, *[]cache.Key) {
	toggler := &fakeToggler{likes: map[model.PostID]bool{}, reposts: map[model.PostID]bool{}}
	var keys []cache.Key
	inv := cache.InvalidatorFunc(func(_ context.Context, k ...cache.Key) { keys = append(keys, k...) })
	return NewService(toggler, inv), toggler, &keys
}

var bob = &model.User{ID: "bob"}

func TestToggleLike(t *testing.T) {
	s, _, keys := newService()
	ctx := context.Background()

	liked, err := s.ToggleLike(ctx, bob, "P1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = s.ToggleLike(ctx, bob, "P1")
	require.NoError(t, err)
	assert.False(t, liked)

	assert.Equal(t, []cache.Key{
		cache.Post("P1"), cache.Likes("P1"),
		cache.Post("P1"), cache.Likes("P1"),
	}, *keys)
}

func TestToggleRepost(t *testing.T) {
	s, _, keys := newService()

	reposted, err := s.ToggleRepost(context.Background(), bob, "P1")
	require.NoError(t, err)
	assert.True(t, reposted)
	assert.Equal(t, []cache.Key{cache.Post("P1"), cache.Reposts("P1")}, *keys)
}

func TestToggleErrors(t *testing.T) {
	s, toggler, keys := newService()

	_, err := s.ToggleLike(context.Background(), nil, "P1")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)

	toggler.err = errors.New("offline")
	_, err = s.ToggleRepost(context.Background(), bob, "P1")
	assert.ErrorContains(t, err, "offline")
	assert.Empty(t, *keys, "failed toggles do not invalidate")
}
