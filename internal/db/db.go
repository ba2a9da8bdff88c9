package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDir is the per-user data directory, relative to the home directory.
const DefaultDir = ".fa"

// DefaultPath returns the default database location (~/.fa/fa.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDir, "fa.db"), nil
}

// Open opens (creating if needed) the database at path and brings its schema
// up to date.
//
// Every transaction starts with BEGIN IMMEDIATE so a commit's
// read-compare-write runs under SQLite's write lock. A single connection
// keeps writers serialized inside one process; busy_timeout covers other
// processes sharing the file.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if path != ":memory:" {
		if _, err := database.Exec("PRAGMA journal_mode = WAL"); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	q.Set("_txlock", "immediate")
	if path == ":memory:" {
		return "file::memory:?" + q.Encode()
	}
	return "file:" + path + "?" + q.Encode()
}
