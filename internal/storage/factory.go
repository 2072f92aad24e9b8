package storage

import (
	"context"
	"fmt"
)

// NewObjectStore constructs the backend selected by config.Type. It is called
// exactly once at startup; the returned handle is injected into everything
// that touches storage.
func NewObjectStore(ctx context.Context, config *Config) (ObjectStore, error) {
	switch config.Type {
	case TypeFilesystem:
		return NewFilesystemStore(config.Directory)
	case TypeS3:
		return NewS3Store(ctx, config)
	case TypeSQLite:
		return NewSQLiteStore(config.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
