// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists colleges, departments, notices, and the searchable
// link registry in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jshan/notice-engine/pkg/types"
)

const dbFile = "notices.db"

// Store manages the crawler SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens or creates the database at dataDir/notices.db and creates the
// schema if it does not exist.
func New(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the base data directory the store was opened with.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS colleges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS departments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			college_id INTEGER NOT NULL REFERENCES colleges(id),
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(college_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS notices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dept_id INTEGER NOT NULL REFERENCES departments(id),
			board TEXT NOT NULL,
			post_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			posted_at TEXT,
			crawled_at TEXT NOT NULL,
			UNIQUE(dept_id, board, post_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notices_dept ON notices(dept_id)`,
		`CREATE TABLE IF NOT EXISTS links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			college TEXT NOT NULL,
			dept TEXT NOT NULL,
			url TEXT NOT NULL,
			UNIQUE(college, dept, url)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// timestamps are stored as RFC 3339 UTC strings.

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
