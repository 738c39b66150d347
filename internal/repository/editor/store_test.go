package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/db"
	"github.com/debemdeboas/the-thread/internal/media"
	"github.com/debemdeboas/the-thread/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, kv KV) (*Store, *fakeClock) {
	t.Helper()
	s, err := Open(context.Background(), kv, "draft-storage")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s.SetClock(clock.Now)
	return s, clock
}

func newTestSQLite(t *testing.T) db.DB {
	t.Helper()
	database := db.NewSQLite(":memory:")
	if err := database.InitDB(); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

var quoteComposition = Composition{
	Content:  "look at this",
	Medias:   []media.StagedMedia{media.Local("file:///tmp/a.jpg")},
	PostType: model.PostTypeQuote,
	ParentID: "P1",
}

func TestAddDraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, NewMemoryKV())

	draft, err := s.AddDraft(ctx, quoteComposition)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if draft.ID == "" {
		t.Fatal("Expected a generated id")
	}
	if !draft.CreatedAt.Equal(clock.now) || !draft.UpdatedAt.Equal(clock.now) {
		t.Errorf("Expected timestamps from the clock, got %v / %v", draft.CreatedAt, draft.UpdatedAt)
	}

	got, err := s.GetDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Composition(), quoteComposition) {
		t.Errorf("Expected %+v, got %+v", quoteComposition, got.Composition())
	}
}

func TestAddDraftPrepends(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, NewMemoryKV())

	var ids []DraftID
	for i := 0; i < 3; i++ {
		d, err := s.AddDraft(ctx, Composition{Content: fmt.Sprintf("draft %d", i), PostType: model.PostTypePost})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		ids = append(ids, d.ID)
		clock.Advance(time.Minute)
	}

	drafts, _ := s.ListDrafts(ctx)
	if len(drafts) != 3 {
		t.Fatalf("Expected 3 drafts, got %d", len(drafts))
	}
	for i, d := range drafts {
		if d.ID != ids[2-i] {
			t.Errorf("Expected most recent first, position %d has %s", i, d.ID)
		}
	}
}

func TestAddDraftValidates(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())

	_, err := s.AddDraft(context.Background(), Composition{Content: "x", PostType: model.PostTypeReply})
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if validationErr.Field != "parent_id" {
		t.Errorf("Expected parent_id field, got %s", validationErr.Field)
	}

	drafts, _ := s.ListDrafts(context.Background())
	if len(drafts) != 0 {
		t.Error("Expected invalid draft not to be stored")
	}
}

func TestUpdateDraft(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, NewMemoryKV())

	d, _ := s.AddDraft(ctx, quoteComposition)
	created := d.CreatedAt
	clock.Advance(time.Hour)

	updated, err := s.UpdateDraft(ctx, d.ID, Composition{Content: "edited", PostType: model.PostTypePost})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.ID != d.ID || !updated.CreatedAt.Equal(created) {
		t.Error("Expected id and creation time to be kept")
	}
	if !updated.UpdatedAt.Equal(clock.now) {
		t.Errorf("Expected updatedAt %v, got %v", clock.now, updated.UpdatedAt)
	}
	if updated.Content != "edited" || updated.ParentID != "" || len(updated.Medias) != 0 {
		t.Errorf("Expected full replacement, got %+v", updated)
	}

	t.Run("Unknown id", func(t *testing.T) {
		_, err := s.UpdateDraft(ctx, "missing", Composition{PostType: model.PostTypePost})
		if !errors.Is(err, ErrDraftNotFound) {
			t.Errorf("Expected ErrDraftNotFound, got %v", err)
		}
	})
}

func TestDeleteDraft(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, NewMemoryKV())

	d, _ := s.AddDraft(ctx, Composition{Content: "bye", PostType: model.PostTypePost})
	if err := s.DeleteDraft(ctx, d.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.GetDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Expected draft to be gone, got %v", err)
	}

	if err := s.DeleteDraft(ctx, "missing"); err != nil {
		t.Errorf("Expected deleting a missing draft to be a no-op, got %v", err)
	}
}

func TestReturnedDraftsAreCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, NewMemoryKV())

	d, _ := s.AddDraft(ctx, quoteComposition)
	d.Content = "mutated"
	d.Medias[0].LocalURI = "mutated"

	got, _ := s.GetDraft(ctx, d.ID)
	if got.Content != quoteComposition.Content || got.Medias[0].LocalURI != "file:///tmp/a.jpg" {
		t.Errorf("Expected stored draft to be unaffected, got %+v", got)
	}
}

func TestStoreSurvivesRestart(t *testing.T) {
	backends := map[string]func(t *testing.T) KV{
		"memory": func(t *testing.T) KV { return NewMemoryKV() },
		"fs": func(t *testing.T) KV {
			kv, err := NewFSKV(t.TempDir())
			if err != nil {
				t.Fatalf("Failed to create fs kv: %v", err)
			}
			return kv
		},
		"db": func(t *testing.T) KV { return NewDBKV(newTestSQLite(t)) },
	}

	for name, newKV := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := newKV(t)
			s, clock := newTestStore(t, kv)

			if _, err := s.AddDraft(ctx, quoteComposition); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			clock.Advance(time.Second)
			edit := Composition{Content: "fix typo", PostType: model.PostTypePost, PostID: "P9"}
			if _, err := s.AddDraft(ctx, edit); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			before, _ := s.ListDrafts(ctx)

			reopened, err := Open(ctx, kv, "draft-storage")
			if err != nil {
				t.Fatalf("Failed to reopen store: %v", err)
			}
			after, _ := reopened.ListDrafts(ctx)

			if !reflect.DeepEqual(before, after) {
				t.Errorf("Expected same collection after restart\nbefore: %+v\nafter:  %+v", before, after)
			}
			if !after[0].IsEdit() || after[1].IsEdit() {
				t.Error("Expected edit flag to survive the restart")
			}
		})
	}
}

func TestOpenEmptyKey(t *testing.T) {
	s, _ := newTestStore(t, NewMemoryKV())
	drafts, err := s.ListDrafts(context.Background())
	if err != nil || len(drafts) != 0 {
		t.Errorf("Expected empty store, got %v (%v)", drafts, err)
	}
}

func TestOpenCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Save(ctx, "draft-storage", []byte("{not json"))

	if _, err := Open(ctx, kv, "draft-storage"); err == nil {
		t.Error("Expected error decoding corrupt drafts")
	}
}

type failingKV struct {
	*MemoryKV
	err error
}

func (f failingKV) Save(context.Context, string, []byte) error {
	return f.err
}

func TestFailedPersistLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	s, _ := newTestStore(t, failingKV{MemoryKV: NewMemoryKV(), err: boom})

	if _, err := s.AddDraft(ctx, quoteComposition); !errors.Is(err, boom) {
		t.Errorf("Expected disk full error, got %v", err)
	}
	drafts, _ := s.ListDrafts(ctx)
	if len(drafts) != 0 {
		t.Errorf("Expected no drafts after failed save, got %d", len(drafts))
	}
}

func TestPersistedLayout(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s, _ := newTestStore(t, kv)
	s.newID = func() DraftID { return "d1" }

	if _, err := s.AddDraft(ctx, quoteComposition); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, _ := kv.Load(ctx, "draft-storage")
	want := `[{"id":"d1","content":"look at this","medias":[{"uri":"file:///tmp/a.jpg","type":"image","mimeType":"image/jpeg"}],` +
		`"post_type":"quote","parentId":"P1","createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}]`
	if string(data) != want {
		t.Errorf("Unexpected layout\nwant: %s\ngot:  %s", want, data)
	}
}

func TestNewKV(t *testing.T) {
	if _, err := NewKV(config.DraftsConfig{Driver: "memory"}, nil); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := NewKV(config.DraftsConfig{Driver: "db"}, nil); err == nil {
		t.Error("Expected db driver without a database to fail")
	}
	if _, err := NewKV(config.DraftsConfig{Driver: "cloud"}, nil); err == nil {
		t.Error("Expected unknown driver to fail")
	}

	s, err := OpenStore(context.Background(), config.DraftsConfig{Driver: "fs", Dir: t.TempDir(), StorageKey: "draft-storage"}, nil)
	if err != nil || s == nil {
		t.Errorf("Expected fs store, got %v", err)
	}
}
