package storage

import (
	"context"
	"errors"
)

// ErrNotFound marks a Get on a key that does not exist in the backing store.
// It is distinct from other I/O failures so callers can map it to 404s.
var ErrNotFound = errors.New("object not found")

// Supported backend types, selected once at startup via NewObjectStore.
const (
	TypeFilesystem = "filesystem"
	TypeS3         = "s3"
	TypeSQLite     = "sqlite"
)

// ObjectStore is the storage abstraction behind the digit corpus. Keys are
// label-prefixed ("<label>/<filename>"); a prefix is one label partition.
type ObjectStore interface {
	// Put stores data under key, overwriting any existing object. The
	// content type is advisory; backends without a place for it ignore it.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// List returns the object names (relative to the prefix) stored under
	// the given prefix. A prefix with no objects yields an empty slice,
	// not an error.
	List(ctx context.Context, prefix string) ([]string, error)

	// Get returns the content stored under key. A missing key yields an
	// error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Close releases backend resources. Backends without any are no-ops.
	Close() error
}

// Config selects and parameterizes the storage backend.
type Config struct {
	// Type is one of TypeFilesystem, TypeS3 or TypeSQLite.
	Type string `yaml:"type"`

	// Directory is the base directory of the filesystem backend.
	Directory string `yaml:"directory"`

	// ConnectionString is the sqlite database path (or ":memory:").
	ConnectionString string `yaml:"connectionString"`

	// Bucket, Region and Endpoint configure the S3 backend. Endpoint is
	// optional and enables path-style addressing for S3-compatible stores
	// (MinIO, Supabase Storage, LocalStack).
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}
