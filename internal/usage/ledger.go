// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package usage keeps the append-only log of search actions in the
// searches table and counts entries inside a trailing window.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Ledger is the contract the rate limiter and policy layer depend on.
type Ledger interface {
	// Record appends one search action stamped with the ledger's current time.
	Record(ctx context.Context, id types.Identity, query string, resultCount int) error

	// CountSince returns the number of entries for id with timestamp in
	// [now-window, now]. On failure it returns 0 together with the error.
	CountSince(ctx context.Context, id types.Identity, window time.Duration) (int, error)
}

// Option configures a SQLLedger.
type Option func(*SQLLedger)

// WithClock overrides the wall clock used to stamp and window entries.
func WithClock(now func() time.Time) Option {
	return func(l *SQLLedger) { l.now = now }
}

// SQLLedger is the SQLite-backed Ledger.
type SQLLedger struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLLedger returns a Ledger over db. The schema must already exist
// (see store.Open).
func NewSQLLedger(db *sql.DB, opts ...Option) *SQLLedger {
	l := &SQLLedger{db: db, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record inserts a single row; it never updates existing entries.
func (l *SQLLedger) Record(ctx context.Context, id types.Identity, query string, resultCount int) error {
	if id == "" {
		return fmt.Errorf("record: empty identity")
	}
	if resultCount < 0 {
		resultCount = 0
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO searches (query, user_hash, timestamp, results_count) VALUES (?, ?, ?, ?)`,
		query, string(id), store.FormatTime(l.now()), resultCount,
	)
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// CountSince excludes entries outside the window without deleting them.
func (l *SQLLedger) CountSince(ctx context.Context, id types.Identity, window time.Duration) (int, error) {
	now := l.now()
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT count(*) FROM searches WHERE user_hash = ? AND timestamp >= ? AND timestamp <= ?`,
		string(id), store.FormatTime(now.Add(-window)), store.FormatTime(now),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting searches: %w", err)
	}
	return n, nil
}

// History returns the most recent entries for id, newest first. A limit of
// zero or less returns every entry.
func (l *SQLLedger) History(ctx context.Context, id types.Identity, limit int) ([]types.UsageRecord, error) {
	q := `SELECT id, query, timestamp, results_count FROM searches
		WHERE user_hash = ? ORDER BY timestamp DESC, id DESC`
	args := []any{string(id)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.UsageRecord
	for rows.Next() {
		r := types.UsageRecord{Identity: id}
		if err := rows.Scan(&r.ID, &r.Query, &r.Timestamp, &r.ResultCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes entries older than before and returns how many were removed.
// Only operators call it; the policy path never compacts the ledger.
func (l *SQLLedger) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM searches WHERE timestamp < ?`, store.FormatTime(before))
	if err != nil {
		return 0, fmt.Errorf("pruning searches: %w", err)
	}
	return res.RowsAffected()
}
