// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() or db.Open() so tests run
// against the authoritative schema, preventing drift between test and
// production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/focusarea/internal/adapters/sqlite"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/db"
	"github.com/example/focusarea/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the shared test database setup function for repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on&_txlock=immediate")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// every connection to :memory: is its own database
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupFileDB opens a real on-disk database through db.Open, the way the
// binary does.
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(filepath.Join(t.TempDir(), "fa.db"))
	if err != nil {
		t.Fatalf("failed to open file db: %v", err)
	}
	t.Cleanup(func() {
		testDB.Close()
	})
	return testDB
}

// seedPackage inserts a test package and returns its ID.
func seedPackage(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	if name == "" {
		name = "Test Package"
	}
	res, err := database.Exec("INSERT INTO packages (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("failed to seed package: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// seedFocusArea creates a focus area with the given property maps as its
// version 0 records.
func seedFocusArea(t *testing.T, repo *sqlite.FocusAreaRepository, packageID int64, props ...revision.Properties) (*secondary.FocusAreaRecord, *secondary.VersionRecord) {
	t.Helper()

	records := make([]revision.Record, len(props))
	for i, p := range props {
		records[i] = revision.Record{GridIndex: i, DisplayOrder: i + 1, Properties: p}
	}
	fa, v, err := repo.CreateFocusArea(context.Background(), secondary.CreateFocusAreaParams{
		PackageID: packageID,
		Name:      "Risks",
		Summary:   "initial version",
		CreatedBy: "tester",
		Checksum:  "c0",
		Records:   records,
		Stats:     revision.Stats{Added: len(records)},
	})
	if err != nil {
		t.Fatalf("failed to seed focus area: %v", err)
	}
	return fa, v
}
