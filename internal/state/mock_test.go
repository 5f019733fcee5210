package state

// mock_test.go - driver-level error paths, exercised against a mocked
// connection rather than a real sqlite file.

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var errBoom = errors.New("boom")

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return NewWithDB(db), mock
}

func TestGetInputHash_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT hash FROM input_hashes").WillReturnError(errBoom)

	_, err := store.GetInputHash("forms/app.md", "webform")
	if err == nil {
		t.Fatal("expected error from failing query")
	}
	if !strings.Contains(err.Error(), "failed to get input hash") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSetInputHash_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("INSERT INTO input_hashes").WillReturnError(errBoom)

	err := store.SetInputHash("forms/app.md", "webform", "abc123")
	if err == nil {
		t.Fatal("expected error from failing exec")
	}
	if !strings.Contains(err.Error(), "failed to set input hash") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestRecordArtifact_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("INSERT INTO artifacts").WillReturnError(errBoom)

	err := store.RecordArtifact("app", "form", "webform", "out/form.json", "h")
	if err == nil {
		t.Fatal("expected error from failing exec")
	}
	if !strings.Contains(err.Error(), "failed to record artifact") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestListArtifacts_ScanError(t *testing.T) {
	store, mock := setupMockStore(t)

	// One column short of what the query selects.
	rows := sqlmock.NewRows([]string{"id", "app_id"}).AddRow("1", "app")
	mock.ExpectQuery("SELECT id, app_id, form_id").WillReturnRows(rows)

	_, err := store.ListArtifacts("app")
	if err == nil {
		t.Fatal("expected error from short row")
	}
	if !strings.Contains(err.Error(), "failed to scan artifact") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
