package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

var cacheLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	cacheLogger = l
}

type queryEntry struct {
	value    any
	storedAt time.Time
}

// QueryCache holds read results (feeds, single posts, repost counts) keyed by Key.
// Entries older than the staleness window are treated as misses.
type QueryCache struct {
	entries    *lru.Cache[Key, queryEntry]
	staleAfter time.Duration
	now        func() time.Time
}

func NewQueryCache(size int, staleAfter time.Duration) (*QueryCache, error) {
	entries, err := lru.New[Key, queryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("error creating query cache: %w", err)
	}

	return &QueryCache{
		entries:    entries,
		staleAfter: staleAfter,
		now:        time.Now,
	}, nil
}

func (c *QueryCache) Get(key Key) (any, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.staleAfter > 0 && c.now().Sub(entry.storedAt) >= c.staleAfter {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *QueryCache) Set(key Key, value any) {
	c.entries.Add(key, queryEntry{value: value, storedAt: c.now()})
}

func (c *QueryCache) Len() int {
	return c.entries.Len()
}

func (c *QueryCache) Invalidate(_ context.Context, keys ...Key) {
	for _, cached := range c.entries.Keys() {
		for _, key := range keys {
			if key.Matches(cached) {
				c.entries.Remove(cached)
				break
			}
		}
	}

	if e := cacheLogger.Debug(); e.Enabled() {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		e.Strs("keys", names).Msg("Invalidated query cache")
	}
}

// Fetch returns the cached value for key or loads, stores and returns it.
func Fetch[V any](ctx context.Context, c *QueryCache, key Key, load func(context.Context) (V, error)) (V, error) {
	if cached, ok := c.Get(key); ok {
		if v, ok := cached.(V); ok {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, v)
	return v, nil
}
