// Package filestore keeps uploaded lesson files under opaque keys.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eduforge/lms-backend/internal/config"
	"github.com/eduforge/lms-backend/internal/platform/gcp"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

// ErrNotFound is returned by Open when the key has no file.
var ErrNotFound = gcp.ErrObjectNotFound

type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the file. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Mode.
func New(ctx context.Context, log *logger.Logger, cfg config.StorageConfig) (Store, error) {
	switch cfg.Mode {
	case config.StorageModeLocal, "":
		s, err := NewLocal(log, cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageModeGCS, config.StorageModeGCSEmulator:
		bc := gcp.BucketConfig{Name: cfg.Bucket}
		if cfg.Mode == config.StorageModeGCSEmulator {
			if cfg.EmulatorHost == "" {
				return nil, errors.New("gcs_emulator storage requires STORAGE_EMULATOR_HOST")
			}
			bc.EmulatorHost = cfg.EmulatorHost
		}
		b, err := gcp.NewLessonBucket(ctx, log, bc)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.Mode)
	}
}
