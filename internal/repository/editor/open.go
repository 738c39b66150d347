package editor

import (
	"context"
	"fmt"

	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/db"
)

// OpenStore opens the draft store selected by cfg.Driver. database is only
// used by the db driver.
func OpenStore(ctx context.Context, cfg config.DraftsConfig, database db.DB) (*Store, error) {
	kv, err := NewKV(cfg, database)
	if err != nil {
		return nil, err
	}
	return Open(ctx, kv, cfg.StorageKey)
}

func NewKV(cfg config.DraftsConfig, database db.DB) (KV, error) {
	switch cfg.Driver {
	case "db":
		if database == nil {
			return nil, fmt.Errorf("drafts driver db needs a database")
		}
		return NewDBKV(database), nil
	case "fs":
		return NewFSKV(cfg.Dir)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown drafts driver %q", cfg.Driver)
	}
}
