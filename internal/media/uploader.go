package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/debemdeboas/the-thread/internal/model"
	"github.com/debemdeboas/the-thread/internal/storage"
)

var objectCounter atomic.Uint64

// ObjectName returns a collision resistant object path for m. Millisecond
// time keeps names sortable; the counter and random suffix break ties.
func ObjectName(now time.Time, m StagedMedia) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%d-%s.%s", now.UnixMilli(), objectCounter.Add(1), suffix, objectExtension(m))
}

// Uploader resolves staged media to object store paths.
type Uploader struct {
	store       storage.ObjectStore
	opener      Opener
	concurrency int

	now func() time.Time
}

func NewUploader(store storage.ObjectStore, opener Opener, concurrency int) *Uploader {
	if concurrency <= 0 {
		concurrency = 1
	}
	if opener == nil {
		opener = FileOpener{}
	}
	return &Uploader{
		store:       store,
		opener:      opener,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (u *Uploader) PublicURL(path string) string {
	return u.store.PublicURL(path)
}

// UploadAll uploads every entry of buf that has no remote ref and returns the
// remote paths aligned with the buffer order. The first failure cancels the
// remaining uploads; refs of the uploads that did finish are still written
// back into buf so a retry does not send them again.
func (u *Uploader) UploadAll(ctx context.Context, buf *Buffer) ([]string, error) {
	items := buf.Items()
	refs := make([]string, len(items))
	uploaded := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, item := range items {
		if item.RemoteRef != "" {
			refs[i] = item.RemoteRef
			continue
		}

		g.Go(func() error {
			ref, err := u.upload(gctx, item)
			if err != nil {
				return &model.UploadError{Index: i, LocalURI: item.LocalURI, Err: err}
			}
			refs[i] = ref
			uploaded[i] = true
			return nil
		})
	}

	err := g.Wait()
	buf.resolve(items, refs)

	if err != nil {
		var uploadErr *model.UploadError
		if errors.As(err, &uploadErr) {
			for i, ok := range uploaded {
				if ok {
					uploadErr.Uploaded = append(uploadErr.Uploaded, refs[i])
				}
			}
		}
		mediaLogger.Error().Err(err).Int("media_count", len(items)).Msg("Media upload failed")
		return nil, err
	}

	mediaLogger.Debug().Int("media_count", len(items)).Msg("All media resolved")
	return refs, nil
}

func (u *Uploader) upload(ctx context.Context, m StagedMedia) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, size, err := u.opener.Open(m.LocalURI)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", m.LocalURI, err)
	}
	defer body.Close()

	name := ObjectName(u.now(), m)
	if err := u.store.Upload(ctx, name, body, size, m.MimeType); err != nil {
		return "", err
	}

	mediaLogger.Debug().Str("uri", m.LocalURI).Str("path", name).Msg("Media uploaded")
	return name, nil
}

// PurgePendingDeletions deletes every detached object of buf in one batch.
// The pending set is cleared whatever the outcome; a failure leaves orphans
// behind and is reported as a *model.DeletionError for logging only.
func (u *Uploader) PurgePendingDeletions(ctx context.Context, buf *Buffer) error {
	paths := buf.takePending()
	if len(paths) == 0 {
		return nil
	}

	if err := u.store.Delete(ctx, paths); err != nil {
		mediaLogger.Warn().Err(err).Strs("paths", paths).Msg("Failed to purge detached media")
		return &model.DeletionError{Paths: paths, Err: err}
	}

	mediaLogger.Debug().Strs("paths", paths).Msg("Detached media purged")
	return nil
}

// Revalidate checks media restored from a draft. Remote refs missing from
// the object store and local files that no longer exist are dropped. Entries
// that cannot be checked are kept.
func (u *Uploader) Revalidate(ctx context.Context, medias []StagedMedia) (kept, dropped []StagedMedia) {
	for _, m := range medias {
		if m.RemoteRef != "" {
			ok, err := u.store.Exists(ctx, m.RemoteRef)
			if err != nil {
				mediaLogger.Warn().Err(err).Str("path", m.RemoteRef).Msg("Could not check remote media, keeping it")
				kept = append(kept, m)
				continue
			}
			if !ok {
				dropped = append(dropped, m)
				continue
			}
			kept = append(kept, m)
			continue
		}

		body, _, err := u.opener.Open(m.LocalURI)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				dropped = append(dropped, m)
				continue
			}
			mediaLogger.Warn().Err(err).Str("uri", m.LocalURI).Msg("Could not open local media, keeping it")
			kept = append(kept, m)
			continue
		}
		body.Close()
		kept = append(kept, m)
	}

	if len(dropped) > 0 {
		mediaLogger.Info().Int("dropped", len(dropped)).Msg("Dropped unavailable media from draft")
	}
	return kept, dropped
}
