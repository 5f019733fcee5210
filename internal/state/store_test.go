package state

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return store
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Errorf("expected path %q, got %q", path, store.Path())
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
}

func TestStore_CloseWithoutOpen(t *testing.T) {
	var s Store
	if err := s.Close(); err != nil {
		t.Errorf("expected nil error closing empty store, got %v", err)
	}
}

func TestStore_MigrateWithoutOpen(t *testing.T) {
	var s Store
	if err := s.Migrate(); err == nil {
		t.Error("expected error migrating unopened store")
	}
}

func TestInputHashes_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	hash, err := store.GetInputHash("forms/app.md", "webform")
	if err != nil {
		t.Fatalf("failed to get input hash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for unknown path, got %q", hash)
	}
}

func TestInputHashes_SetAndGet(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SetInputHash("forms/app.md", "webform", "abc123"); err != nil {
		t.Fatalf("failed to set input hash: %v", err)
	}

	hash, err := store.GetInputHash("forms/app.md", "webform")
	if err != nil {
		t.Fatalf("failed to get input hash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("expected hash abc123, got %q", hash)
	}
}

func TestInputHashes_TargetsAreIndependent(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SetInputHash("forms/app.md", "webform", "abc123"); err != nil {
		t.Fatalf("failed to set input hash: %v", err)
	}

	// The same input compiled for a different target has no recorded hash
	// and must not be skipped.
	hash, err := store.GetInputHash("forms/app.md", "postgres")
	if err != nil {
		t.Fatalf("failed to get input hash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for unseen target, got %q", hash)
	}
}

func TestInputHashes_SetReplaces(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SetInputHash("forms/app.md", "webform", "abc123"); err != nil {
		t.Fatalf("failed to set input hash: %v", err)
	}
	if err := store.SetInputHash("forms/app.md", "webform", "def456"); err != nil {
		t.Fatalf("failed to replace input hash: %v", err)
	}

	hash, err := store.GetInputHash("forms/app.md", "webform")
	if err != nil {
		t.Fatalf("failed to get input hash: %v", err)
	}
	if hash != "def456" {
		t.Errorf("expected hash def456, got %q", hash)
	}
}

func TestInputHashes_DeleteClearsAllTargets(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SetInputHash("forms/app.md", "webform", "abc123"); err != nil {
		t.Fatalf("failed to set input hash: %v", err)
	}
	if err := store.SetInputHash("forms/app.md", "postgres", "abc123"); err != nil {
		t.Fatalf("failed to set input hash: %v", err)
	}
	if err := store.DeleteInputHash("forms/app.md"); err != nil {
		t.Fatalf("failed to delete input hash: %v", err)
	}

	for _, target := range []string{"webform", "postgres"} {
		hash, err := store.GetInputHash("forms/app.md", target)
		if err != nil {
			t.Fatalf("failed to get input hash: %v", err)
		}
		if hash != "" {
			t.Errorf("expected empty %s hash after delete, got %q", target, hash)
		}
	}
}

func TestInputHashes_DeleteMissing(t *testing.T) {
	store := setupTestStore(t)

	if err := store.DeleteInputHash("forms/never-seen.md"); err != nil {
		t.Errorf("expected deleting unknown path to succeed, got %v", err)
	}
}

func TestArtifacts_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	artifact, err := store.GetArtifact("deploy_tracker", "deployment_jobs", "webform")
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}
	if artifact != nil {
		t.Errorf("expected nil artifact for unknown key, got %+v", artifact)
	}
}

func TestArtifacts_RecordAndGet(t *testing.T) {
	store := setupTestStore(t)

	err := store.RecordArtifact("deploy_tracker", "deployment_jobs", "webform", "out/deployment_jobs.form.json", "hash1")
	if err != nil {
		t.Fatalf("failed to record artifact: %v", err)
	}

	artifact, err := store.GetArtifact("deploy_tracker", "deployment_jobs", "webform")
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact, got nil")
	}
	if artifact.ID == "" {
		t.Error("expected generated artifact id")
	}
	if artifact.Path != "out/deployment_jobs.form.json" {
		t.Errorf("expected recorded path, got %q", artifact.Path)
	}
	if artifact.Hash != "hash1" {
		t.Errorf("expected hash hash1, got %q", artifact.Hash)
	}
	if artifact.BuiltAt.IsZero() {
		t.Error("expected built_at timestamp to be set")
	}
	if time.Since(artifact.BuiltAt) > time.Minute {
		t.Errorf("expected recent built_at, got %v", artifact.BuiltAt)
	}
}

func TestArtifacts_RecordUpdatesInPlace(t *testing.T) {
	store := setupTestStore(t)

	err := store.RecordArtifact("deploy_tracker", "deployment_jobs", "webform", "out/deployment_jobs.form.json", "hash1")
	if err != nil {
		t.Fatalf("failed to record artifact: %v", err)
	}
	first, err := store.GetArtifact("deploy_tracker", "deployment_jobs", "webform")
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}

	err = store.RecordArtifact("deploy_tracker", "deployment_jobs", "webform", "out/deployment_jobs.form.json", "hash2")
	if err != nil {
		t.Fatalf("failed to re-record artifact: %v", err)
	}
	second, err := store.GetArtifact("deploy_tracker", "deployment_jobs", "webform")
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}

	if second.Hash != "hash2" {
		t.Errorf("expected updated hash hash2, got %q", second.Hash)
	}
	if second.ID != first.ID {
		t.Errorf("expected stable artifact id across rebuilds, got %q then %q", first.ID, second.ID)
	}

	all, err := store.ListArtifacts("deploy_tracker")
	if err != nil {
		t.Fatalf("failed to list artifacts: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single manifest row, got %d", len(all))
	}
}

func TestArtifacts_List(t *testing.T) {
	store := setupTestStore(t)

	records := []struct {
		formID, target, path string
	}{
		{"deployment_jobs", "webform", "out/deployment_jobs.form.json"},
		{"deployment_jobs", "postgres", "out/deployment_jobs.sql"},
		{"deployment_history", "webform", "out/deployment_history.form.json"},
	}
	for _, r := range records {
		if err := store.RecordArtifact("deploy_tracker", r.formID, r.target, r.path, "h"); err != nil {
			t.Fatalf("failed to record artifact: %v", err)
		}
	}
	if err := store.RecordArtifact("other_app", "teams", "webform", "out/teams.form.json", "h"); err != nil {
		t.Fatalf("failed to record artifact: %v", err)
	}

	artifacts, err := store.ListArtifacts("deploy_tracker")
	if err != nil {
		t.Fatalf("failed to list artifacts: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(artifacts))
	}

	// Ordered by form id, then target.
	wantOrder := []string{"deployment_history", "deployment_jobs", "deployment_jobs"}
	for i, a := range artifacts {
		if a.FormID != wantOrder[i] {
			t.Errorf("artifact %d: expected form %q, got %q", i, wantOrder[i], a.FormID)
		}
	}
	if artifacts[1].Target != "postgres" || artifacts[2].Target != "webform" {
		t.Errorf("expected targets ordered within a form, got %q then %q", artifacts[1].Target, artifacts[2].Target)
	}
}

func TestArtifacts_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	artifacts, err := store.ListArtifacts("no_such_app")
	if err != nil {
		t.Fatalf("failed to list artifacts: %v", err)
	}
	if len(artifacts) != 0 {
		t.Errorf("expected no artifacts, got %d", len(artifacts))
	}
}
