package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(). If repository code references a column that
// doesn't exist here, tests fail immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Bump the version recorded for fresh installs (latestVersion)
//
// # Append-only history
//
// focus_area_versions and focus_area_records are never updated or deleted.
// The triggers at the bottom abort any statement that tries. The only mutable
// state is focus_areas.current_version_id and focus_areas.deleted, and both
// are written by a compare-and-swap on current_version_id.
const SchemaSQL = `
-- Packages (parent analysis packages; owned by the surrounding product)
CREATE TABLE IF NOT EXISTS packages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	deleted INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Focus areas (named, versioned record collections)
CREATE TABLE IF NOT EXISTS focus_areas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	package_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	deleted INTEGER NOT NULL DEFAULT 0,
	current_version_id INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (package_id) REFERENCES packages(id),
	FOREIGN KEY (current_version_id) REFERENCES focus_area_versions(id)
);

CREATE INDEX IF NOT EXISTS idx_focus_areas_package ON focus_areas(package_id);

-- Versions (immutable snapshot descriptors)
CREATE TABLE IF NOT EXISTS focus_area_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	focus_area_id INTEGER NOT NULL,
	version_number INTEGER NOT NULL CHECK(version_number >= 0),
	summary TEXT NOT NULL,
	operation TEXT NOT NULL CHECK(operation IN ('create', 'edit', 'remove', 'ai_revision', 'recover')),
	created_by TEXT,
	checksum TEXT NOT NULL,
	added_count INTEGER NOT NULL DEFAULT 0,
	updated_count INTEGER NOT NULL DEFAULT 0,
	carried_count INTEGER NOT NULL DEFAULT 0,
	deleted_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (focus_area_id) REFERENCES focus_areas(id),
	UNIQUE(focus_area_id, version_number)
);

-- Records (rows owned by exactly one version)
CREATE TABLE IF NOT EXISTS focus_area_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id INTEGER NOT NULL,
	grid_index INTEGER NOT NULL CHECK(grid_index >= 0),
	display_order INTEGER NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}',
	deleted INTEGER NOT NULL DEFAULT 0,
	source_ref TEXT,
	copied_from_id INTEGER,
	FOREIGN KEY (version_id) REFERENCES focus_area_versions(id),
	FOREIGN KEY (copied_from_id) REFERENCES focus_area_records(id),
	UNIQUE(version_id, grid_index)
);

CREATE INDEX IF NOT EXISTS idx_focus_area_records_version ON focus_area_records(version_id, display_order);

CREATE TRIGGER IF NOT EXISTS focus_area_versions_no_update
BEFORE UPDATE ON focus_area_versions
BEGIN
	SELECT RAISE(ABORT, 'focus_area_versions is append-only');
END;

CREATE TRIGGER IF NOT EXISTS focus_area_versions_no_delete
BEFORE DELETE ON focus_area_versions
BEGIN
	SELECT RAISE(ABORT, 'focus_area_versions is append-only');
END;

CREATE TRIGGER IF NOT EXISTS focus_area_records_no_update
BEFORE UPDATE ON focus_area_records
BEGIN
	SELECT RAISE(ABORT, 'focus_area_records is append-only');
END;

CREATE TRIGGER IF NOT EXISTS focus_area_records_no_delete
BEFORE DELETE ON focus_area_records
BEGIN
	SELECT RAISE(ABORT, 'focus_area_records is append-only');
END;
`

// InitSchema creates the schema on a fresh database or runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	var legacyCount int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'focus_areas'").Scan(&legacyCount)
	if err != nil {
		return err
	}
	if legacyCount > 0 {
		// Tables predate version tracking - upgrade them in place
		return RunMigrations(database)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied
	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := ensureVersionTable(database); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
