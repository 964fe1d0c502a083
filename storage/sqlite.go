// Package storage persists hermes hosts, event types, and events in SQLite.
// The package receives only the database URI from configuration and owns its
// own connection handling.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite holds the database connection for hermes metadata storage.
type SQLite struct {
	DB     *sql.DB
	Path   string
	Logger *zap.SugaredLogger
}

// PathFromURI extracts the filesystem path from a database URI. Accepted
// forms: "sqlite:///var/lib/hermes/hermes.db", "sqlite://:memory:", or a
// plain path.
func PathFromURI(uri string) (string, error) {
	if strings.HasPrefix(uri, "sqlite://") {
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return "", fmt.Errorf("database URI %q has no path", uri)
		}
		return path, nil
	}
	if strings.Contains(uri, "://") {
		return "", fmt.Errorf("unsupported database URI scheme in %q (only sqlite is supported)", uri)
	}
	return uri, nil
}

// NewSQLite opens the database at the given URI, applies connection pragmas,
// and runs migrations.
func NewSQLite(uri string, logger *zap.SugaredLogger) (*SQLite, error) {
	dbPath, err := PathFromURI(uri)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := configureConnection(db, dbPath); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{DB: db, Path: dbPath, Logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Infow("SQLite storage ready", "path", dbPath)
	return s, nil
}

// configureConnection enables WAL mode, foreign keys, and a busy timeout.
// SQLite disables foreign keys by default; without them event rows could
// reference deleted hosts.
func configureConnection(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	// In-memory databases report "memory", not "wal".
	if dbPath != ":memory:" && journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled (journal_mode=%s)", journalMode)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.DB.Close()
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a SQLite FOREIGN KEY
// constraint failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
