// Package sqlite persists the local blacklist/whitelist and the analysis
// audit trail in an embedded database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the embedded database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at the given DSN.
func New(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:phishing.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blacklist (
			domain TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS whitelist (
			domain TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_audit (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			tier TEXT NOT NULL,
			score INTEGER NOT NULL,
			decision_source TEXT NOT NULL,
			reasons_json TEXT NOT NULL,
			computed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_key ON analysis_audit(key)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_computed_at ON analysis_audit(computed_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
