package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"cand-go/internal/database/migrations"
)

var sqliteDialect = dialect{
	name:             migrations.SQLite,
	placeholder:      func(int) string { return "?" },
	tableExistsQuery: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
}

// NewSQLiteStore opens a SQLite-backed store.
// path can be a file path or ":memory:" for an in-memory database.
// Migrations are not applied; see MigrateUp and CheckMigrations.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLStoreFromDB(db, sqliteDialect, path), nil
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for tests that need a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait for locks rather than failing straight away when the API server and
	// the CLI touch the same file.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// CheckMigrations verifies the bookkeeping schema is up to date.
func (s *SQLStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect.name)
}

// MigrateUp applies any pending migrations.
func (s *SQLStore) MigrateUp() error {
	return migrations.MigrateUp(s.db, s.dialect.name)
}
