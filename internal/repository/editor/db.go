package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/the-thread/internal/db"
	"github.com/debemdeboas/the-thread/internal/util/compression"
)

// DBKV stores values compressed in the kv_store table.
type DBKV struct { // implements KV
	db         db.DB
	compressor compression.Compressor
}

func NewDBKV(db db.DB) *DBKV {
	return &DBKV{
		db:         db,
		compressor: compression.ZstdCompressor{},
	}
}

func (k *DBKV) Load(ctx context.Context, key string) ([]byte, error) {
	var compressed []byte
	err := k.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading key %s: %w", key, err)
	}

	data, err := k.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing key %s: %w", key, err)
	}
	return data, nil
}

func (k *DBKV) Save(ctx context.Context, key string, value []byte) error {
	compressed, err := k.compressor.Compress(value)
	if err != nil {
		return fmt.Errorf("error compressing key %s: %w", key, err)
	}

	_, err = k.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, compressed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving key %s: %w", key, err)
	}
	return nil
}
