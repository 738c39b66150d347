package editor

import (
	"context"
	"slices"
)

// Migrate merges the drafts saved under key in from into to and reports how
// many drafts were written. A draft present in both is replaced only by a
// more recently updated copy. The merged list is ordered newest first.
func Migrate(ctx context.Context, from, to KV, key string) (int, error) {
	src, err := Open(ctx, from, key)
	if err != nil {
		return 0, err
	}
	dst, err := Open(ctx, to, key)
	if err != nil {
		return 0, err
	}

	dst.mu.Lock()
	defer dst.mu.Unlock()

	merged := slices.Clone(dst.drafts)
	copied := 0
	for _, d := range src.drafts {
		i := slices.IndexFunc(merged, func(m *Draft) bool { return m.ID == d.ID })
		switch {
		case i < 0:
			merged = append(merged, d)
		case d.UpdatedAt.After(merged[i].UpdatedAt):
			merged[i] = d
		default:
			continue
		}
		copied++
	}

	if copied == 0 {
		return 0, nil
	}

	slices.SortStableFunc(merged, func(a, b *Draft) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if err := dst.persist(ctx, merged); err != nil {
		return 0, err
	}
	dst.drafts = merged

	editorLogger.Info().Str("key", key).Int("copied", copied).Int("total", len(merged)).Msg("Drafts migrated")
	return copied, nil
}
