package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sampleExtension is the only file extension the corpus stores; directory
// listings are filtered to it so stray files never show up as samples.
const sampleExtension = ".png"

// FilesystemStore keeps objects as plain files under a base directory.
// The key "<label>/<filename>" maps to "<baseDir>/<label>/<filename>", so the
// directory tree itself is the source of truth and stays inspectable with
// ordinary shell tools.
type FilesystemStore struct {
	baseDir string
}

// NewFilesystemStore creates the base directory if needed and returns a store
// rooted there.
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("filesystem storage requires a directory")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", baseDir, err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

// objectPath returns the filesystem path for a given key.
func (s *FilesystemStore) objectPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *FilesystemStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create partition directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, filepath.FromSlash(prefix)))
	if errors.Is(err, fs.ErrNotExist) {
		// A partition that never received an upload simply has no
		// directory yet; that is an empty listing, not a failure.
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), sampleExtension) {
			continue
		}
		names = append(names, entry.Name())
	}
	// os.ReadDir returns entries sorted by name, which for our timestamped
	// filenames means sorted by upload time.
	return names, nil
}

func (s *FilesystemStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.objectPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (s *FilesystemStore) Close() error {
	return nil
}
