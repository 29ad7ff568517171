// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entitlement records premium grants and answers whether an identity
// currently holds one. Grants live in the premium_users table.
package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Store is the contract the policy layer depends on.
type Store interface {
	// IsEntitled reports whether id holds a grant that expires strictly after now.
	// On failure it returns false together with the error.
	IsEntitled(ctx context.Context, id types.Identity) (bool, error)

	// Grant inserts or replaces the grant for id with expiry now+d.
	Grant(ctx context.Context, id types.Identity, d time.Duration) error

	// GrantOnce grants like Grant unless checkoutID was already used. It
	// reports whether a grant was written.
	GrantOnce(ctx context.Context, id types.Identity, d time.Duration, checkoutID string) (bool, error)

	// Lookup returns the stored record for id, active or expired.
	Lookup(ctx context.Context, id types.Identity) (types.Entitlement, bool, error)
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithClock overrides the wall clock used to evaluate and stamp grants.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) { s.now = now }
}

// SQLStore is the SQLite-backed Store.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore returns a Store over db. The schema must already exist
// (see store.Open).
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEntitled fails closed: any query error yields false plus the error.
func (s *SQLStore) IsEntitled(ctx context.Context, id types.Identity) (bool, error) {
	if id == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM premium_users WHERE user_hash = ? AND expires_at > ?`,
		string(id), store.FormatTime(s.now()),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking entitlement: %w", err)
	}
	return n > 0, nil
}

// Grant replaces any prior expiry; it never extends it.
func (s *SQLStore) Grant(ctx context.Context, id types.Identity, d time.Duration) error {
	if err := validateGrant(id, d); err != nil {
		return err
	}
	return upsertGrant(ctx, s.db, id, s.now(), d)
}

// GrantOnce records checkoutID and writes the grant in one transaction. A
// checkout that was already consumed leaves the existing grant untouched.
func (s *SQLStore) GrantOnce(ctx context.Context, id types.Identity, d time.Duration, checkoutID string) (bool, error) {
	if err := validateGrant(id, d); err != nil {
		return false, err
	}
	if checkoutID == "" {
		return false, fmt.Errorf("grant: empty checkout id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning grant: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO activations (session_id, user_hash, activated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		checkoutID, string(id), store.FormatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("recording activation: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("recording activation: %w", err)
	} else if n == 0 {
		return false, nil
	}

	if err := upsertGrant(ctx, tx, id, now, d); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing grant: %w", err)
	}
	return true, nil
}

func validateGrant(id types.Identity, d time.Duration) error {
	if id == "" {
		return fmt.Errorf("grant: empty identity")
	}
	if d <= 0 {
		return fmt.Errorf("grant: duration must be positive, got %v", d)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertGrant(ctx context.Context, db execer, id types.Identity, now time.Time, d time.Duration) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO premium_users (user_hash, activated_at, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_hash) DO UPDATE SET
			activated_at=excluded.activated_at, expires_at=excluded.expires_at`,
		string(id), store.FormatTime(now), store.FormatTime(now.Add(d)),
	)
	if err != nil {
		return fmt.Errorf("granting entitlement: %w", err)
	}
	return nil
}

// Lookup returns the record for id regardless of expiry.
func (s *SQLStore) Lookup(ctx context.Context, id types.Identity) (types.Entitlement, bool, error) {
	e := types.Entitlement{Identity: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT activated_at, expires_at FROM premium_users WHERE user_hash = ?`, string(id),
	).Scan(&e.ActivatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Entitlement{}, false, nil
	}
	if err != nil {
		return types.Entitlement{}, false, fmt.Errorf("looking up entitlement: %w", err)
	}
	return e, true, nil
}
