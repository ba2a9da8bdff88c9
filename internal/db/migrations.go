package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_focus_area_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_version_stats_and_checksum",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_record_lineage",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "append_only_triggers",
		Up:      migrationV4,
	},
}

// LatestVersion returns the highest known migration version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

func ensureVersionTable(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(database *sql.DB) (int, error) {
	var v int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(database *sql.DB) error {
	if err := ensureVersionTable(database); err != nil {
		return err
	}

	currentVersion, err := CurrentVersion(database)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the original tables, without stats, lineage or triggers
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS packages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

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

		CREATE TABLE IF NOT EXISTS focus_area_versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			focus_area_id INTEGER NOT NULL,
			version_number INTEGER NOT NULL CHECK(version_number >= 0),
			summary TEXT NOT NULL,
			operation TEXT NOT NULL CHECK(operation IN ('create', 'edit', 'remove', 'ai_revision', 'recover')),
			created_by TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (focus_area_id) REFERENCES focus_areas(id),
			UNIQUE(focus_area_id, version_number)
		);

		CREATE TABLE IF NOT EXISTS focus_area_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version_id INTEGER NOT NULL,
			grid_index INTEGER NOT NULL CHECK(grid_index >= 0),
			display_order INTEGER NOT NULL,
			properties TEXT NOT NULL DEFAULT '{}',
			deleted INTEGER NOT NULL DEFAULT 0,
			source_ref TEXT,
			FOREIGN KEY (version_id) REFERENCES focus_area_versions(id),
			UNIQUE(version_id, grid_index)
		);

		CREATE INDEX IF NOT EXISTS idx_focus_area_records_version ON focus_area_records(version_id, display_order);
	`)
	return err
}

// migrationV2 adds per-version reconciliation stats and the content checksum.
// Versions written before this migration get an empty checksum; verify
// reports them as unchecked rather than mismatched.
func migrationV2(tx *sql.Tx) error {
	stmts := []string{
		"ALTER TABLE focus_area_versions ADD COLUMN checksum TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE focus_area_versions ADD COLUMN added_count INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE focus_area_versions ADD COLUMN updated_count INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE focus_area_versions ADD COLUMN carried_count INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE focus_area_versions ADD COLUMN deleted_count INTEGER NOT NULL DEFAULT 0",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV3 links each record to the row it was copied from
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec("ALTER TABLE focus_area_records ADD COLUMN copied_from_id INTEGER REFERENCES focus_area_records(id)")
	return err
}

// migrationV4 makes versions and records append-only at the database level
func migrationV4(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}
