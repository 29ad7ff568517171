// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store opens the local SQLite database that holds search usage and
// premium entitlements, and creates its schema.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// TimeLayout is the on-disk timestamp format. It is fixed-width UTC so that
// string comparison in SQL matches chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp. It also accepts SQLite's
// CURRENT_TIMESTAMP form and RFC 3339 for rows written by other tools.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Open opens or creates the SQLite database at cfg.Path and ensures the
// schema exists. Schema creation is idempotent.
func Open(cfg types.StoreConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		cfg.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// CreateSchema creates the searches, premium_users and activations tables
// if absent. activations holds checkout sessions that already granted premium.
func CreateSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY,
			query TEXT NOT NULL,
			user_hash TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			results_count INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_user_time ON searches(user_hash, timestamp)`,
		`CREATE TABLE IF NOT EXISTS premium_users (
			id INTEGER PRIMARY KEY,
			user_hash TEXT UNIQUE NOT NULL,
			activated_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activations (
			session_id TEXT PRIMARY KEY,
			user_hash TEXT NOT NULL,
			activated_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
