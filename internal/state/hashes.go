package state

// hashes.go - content hashes of parsed input files, used to skip
// unchanged inputs on rebuild. Hashes are keyed by (path, target)
// because the same input compiled for a new target must not be skipped.

import (
	"database/sql"
	"fmt"
	"time"
)

// GetInputHash returns the recorded hash for an input path and target,
// or "" when the pair has never been recorded.
func (s *Store) GetInputHash(path, target string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM input_hashes WHERE path = ? AND target = ?`, path, target).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get input hash: %w", err)
	}
	return hash, nil
}

// SetInputHash records the hash for an input path and target, replacing
// any previous value.
func (s *Store) SetInputHash(path, target, hash string) error {
	_, err := s.db.Exec(`
		INSERT INTO input_hashes (path, target, hash, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (path, target) DO UPDATE SET
			hash = excluded.hash,
			updated_at = excluded.updated_at
	`, path, target, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set input hash: %w", err)
	}
	return nil
}

// DeleteInputHash removes the records for an input path across all
// targets. Deleting a path that was never recorded is not an error.
func (s *Store) DeleteInputHash(path string) error {
	_, err := s.db.Exec(`DELETE FROM input_hashes WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete input hash: %w", err)
	}
	return nil
}
