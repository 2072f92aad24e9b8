package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps objects as BLOB rows in a single sqlite file, which makes
// a one-binary deployment possible without a data directory or a bucket.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the database at
// connectionString and ensures the objects table exists. ":memory:" gives an
// ephemeral store, which the tests use.
func NewSQLiteStore(connectionString string) (*SQLiteStore, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("sqlite storage requires a connection string")
	}

	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create objects table: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS objects (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (key, content, content_type) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content, content_type = excluded.content_type`,
		key, data, contentType)
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	// Label prefixes are single digits, so the LIKE pattern contains no
	// metacharacters that would need escaping.
	keyPrefix := prefix + "/"
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM objects WHERE key LIKE ? ORDER BY key", keyPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	names := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key under prefix %s: %w", prefix, err)
		}
		names = append(names, strings.TrimPrefix(key, keyPrefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	return names, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM objects WHERE key = ?", key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return content, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
