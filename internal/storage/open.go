package storage

import (
	"context"
	"fmt"

	"github.com/debemdeboas/the-thread/internal/config"
)

// Open builds the object store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	var (
		store ObjectStore
		err   error
	)

	switch cfg.Driver {
	case "s3":
		store, err = NewS3Store(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PublicBaseURL:   cfg.PublicBaseURL,
		})
	case "minio":
		store, err = NewMinioStore(ctx, MinioOptions{
			Endpoint:        cfg.Endpoint,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UseSSL:          cfg.UseSSL,
			PublicBaseURL:   cfg.PublicBaseURL,
			CreateBucket:    true,
		})
	case "fs":
		store, err = NewFSStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	storageLogger.Info().Str("driver", cfg.Driver).Str("bucket", cfg.Bucket).Msg("Object store ready")
	return store, nil
}
