// Package state persists the build cache between runs: content hashes of
// parsed inputs and a manifest of written artifacts. It records what was
// built, never what was deployed.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed build cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at the given path. Use
// ":memory:" for an in-memory store. Migrations run separately via
// Migrate.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// NewWithDB wraps an existing connection. The caller keeps ownership of
// the connection lifecycle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
