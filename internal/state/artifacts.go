package state

// artifacts.go - manifest of build outputs written to disk. One row per
// (app, form, target); rebuilding updates the row in place.

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Artifact is one written build output.
type Artifact struct {
	ID      string
	AppID   string
	FormID  string
	Target  string
	Path    string
	Hash    string
	BuiltAt time.Time
}

// RecordArtifact upserts the manifest row for (appID, formID, target).
// The original row id survives a rebuild.
func (s *Store) RecordArtifact(appID, formID, target, path, hash string) error {
	_, err := s.db.Exec(`
		INSERT INTO artifacts (id, app_id, form_id, target, path, hash, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (app_id, form_id, target) DO UPDATE SET
			path = excluded.path,
			hash = excluded.hash,
			built_at = excluded.built_at
	`, uuid.New().String(), appID, formID, target, path, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns every recorded artifact for an app, ordered by
// form id then target.
func (s *Store) ListArtifacts(appID string) ([]Artifact, error) {
	rows, err := s.db.Query(`
		SELECT id, app_id, form_id, target, path, hash, built_at
		FROM artifacts
		WHERE app_id = ?
		ORDER BY form_id, target
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.AppID, &a.FormID, &a.Target, &a.Path, &a.Hash, &a.BuiltAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifacts: %w", err)
	}
	return artifacts, nil
}

// GetArtifact returns the recorded artifact for (appID, formID, target),
// or nil when none has been recorded.
func (s *Store) GetArtifact(appID, formID, target string) (*Artifact, error) {
	var a Artifact
	err := s.db.QueryRow(`
		SELECT id, app_id, form_id, target, path, hash, built_at
		FROM artifacts
		WHERE app_id = ? AND form_id = ? AND target = ?
	`, appID, formID, target).Scan(&a.ID, &a.AppID, &a.FormID, &a.Target, &a.Path, &a.Hash, &a.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return &a, nil
}
