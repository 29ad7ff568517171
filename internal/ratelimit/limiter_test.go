// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/truthfinder/internal/entitlement"
	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/internal/usage"
	"github.com/pdiddy/truthfinder/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	limiter *Limiter
	ents    *entitlement.SQLStore
	ledger  *usage.SQLLedger
	clk     *fakeClock
}

func testSetup(t *testing.T) fixture {
	t.Helper()
	db, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "searches.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := &fakeClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	ents := entitlement.NewSQLStore(db, entitlement.WithClock(clk.Now))
	ledger := usage.NewSQLLedger(db, usage.WithClock(clk.Now))
	return fixture{
		limiter: New(ents, ledger, 5, 24*time.Hour),
		ents:    ents,
		ledger:  ledger,
		clk:     clk,
	}
}

func TestNewDefaults(t *testing.T) {
	l := New(nil, nil, 0, 0)
	assert.Equal(t, DefaultCap, l.Cap())
	assert.Equal(t, DefaultWindow, l.Window())
}

func TestRemainingCountsDown(t *testing.T) {
	f := testSetup(t)
	ctx := context.Background()

	for want := 5; want >= 0; want-- {
		n, err := f.limiter.Remaining(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, want, n)
		require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))
		f.clk.Advance(time.Minute)
	}

	// Overshoot (e.g. from racing sessions) still reports zero, never negative.
	require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))
	n, err := f.limiter.Remaining(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAllowRecoversAfterWindow(t *testing.T) {
	f := testSetup(t)
	ctx := context.Background()
	t0 := f.clk.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))
		f.clk.Advance(15 * time.Minute)
	}

	ok, err := f.limiter.Allow(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok, "cap reached")

	// Oldest entry at t0 leaves the window just after t0+24h.
	f.clk.t = t0.Add(24*time.Hour + time.Second)
	ok, err = f.limiter.Allow(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok, "allowed again without a grant")

	n, err := f.limiter.Remaining(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemainingUnlimitedWhenEntitled(t *testing.T) {
	f := testSetup(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))
	}
	require.NoError(t, f.ents.Grant(ctx, "abc123", 30*24*time.Hour))

	n, err := f.limiter.Remaining(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, Unlimited, n)
	assert.Positive(t, n)

	ok, err := f.limiter.Allow(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemainingRepeatable(t *testing.T) {
	f := testSetup(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))

	first, err := f.limiter.Remaining(ctx, "abc123")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		n, err := f.limiter.Remaining(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, first, n)
	}
}

// --- failure paths ---

type failingStore struct{}

func (failingStore) IsEntitled(context.Context, types.Identity) (bool, error) {
	return false, errors.New("database is locked")
}
func (failingStore) Grant(context.Context, types.Identity, time.Duration) error {
	return errors.New("database is locked")
}
func (failingStore) GrantOnce(context.Context, types.Identity, time.Duration, string) (bool, error) {
	return false, errors.New("database is locked")
}
func (failingStore) Lookup(context.Context, types.Identity) (types.Entitlement, bool, error) {
	return types.Entitlement{}, false, errors.New("database is locked")
}

type failingLedger struct{}

func (failingLedger) Record(context.Context, types.Identity, string, int) error {
	return errors.New("disk I/O error")
}
func (failingLedger) CountSince(context.Context, types.Identity, time.Duration) (int, error) {
	return 0, errors.New("disk I/O error")
}

func TestRemainingEntitlementFailureFallsBackToFree(t *testing.T) {
	f := testSetup(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Record(ctx, "abc123", "q", 1))

	l := New(failingStore{}, f.ledger, 5, 24*time.Hour)
	n, err := l.Remaining(ctx, "abc123")
	assert.Error(t, err)
	assert.Equal(t, 4, n)
}

func TestFreeRemainingLedgerFailureCountsZero(t *testing.T) {
	f := testSetup(t)
	l := New(f.ents, failingLedger{}, 5, 24*time.Hour)

	n, err := l.FreeRemaining(context.Background(), "abc123")
	assert.Error(t, err)
	assert.Equal(t, 5, n)

	ok, err := l.Allow(context.Background(), "abc123")
	assert.Error(t, err)
	assert.True(t, ok)
}
