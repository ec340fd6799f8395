// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides settings/account/role persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.seedCapabilities(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding capabilities: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS accounts (
			account_id    TEXT PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			created_at    TEXT NOT NULL,

			CHECK (status IN ('active', 'blocked'))
		);

		CREATE TABLE IF NOT EXISTS account_roles (
			account_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			created_at TEXT NOT NULL,

			PRIMARY KEY (account_id, role),
			FOREIGN KEY (account_id) REFERENCES accounts(account_id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_account_roles_account ON account_roles(account_id);

		CREATE TABLE IF NOT EXISTS role_capabilities (
			role       TEXT NOT NULL,
			capability TEXT NOT NULL,

			PRIMARY KEY (role, capability)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// seedCapabilities installs DefaultGrants on a database that has no grants yet.
func (s *SQLiteStore) seedCapabilities() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM role_capabilities`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for role, caps := range DefaultGrants {
		for _, capability := range caps {
			if _, err := s.db.Exec(
				`INSERT OR IGNORE INTO role_capabilities (role, capability) VALUES (?, ?)`,
				role, capability,
			); err != nil {
				return fmt.Errorf("granting %q to %s: %w", capability, role, err)
			}
		}
	}
	s.logger.Info("seeded default capabilities")
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}
