// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entitlement

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/pkg/types"
)

const month = 30 * 24 * time.Hour

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Set(t time.Time)         { c.t = t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testSetup(t *testing.T) (*SQLStore, *fakeClock, *sql.DB) {
	t.Helper()
	db, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "searches.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewSQLStore(db, WithClock(clk.Now)), clk, db
}

func TestIsEntitledNeverGranted(t *testing.T) {
	s, clk, _ := testSetup(t)
	ctx := context.Background()

	for _, offset := range []time.Duration{0, time.Hour, month, 10 * month} {
		clk.Advance(offset)
		ok, err := s.IsEntitled(ctx, "never-granted")
		require.NoError(t, err)
		assert.False(t, ok, "offset %v", offset)
	}
}

func TestIsEntitledEmptyIdentity(t *testing.T) {
	s, _, _ := testSetup(t)
	ok, err := s.IsEntitled(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantWindow(t *testing.T) {
	s, clk, _ := testSetup(t)
	ctx := context.Background()
	t0 := clk.Now()

	require.NoError(t, s.Grant(ctx, "abc123", month))

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just after grant", t0.Add(time.Nanosecond), true},
		{"mid window", t0.Add(15 * 24 * time.Hour), true},
		{"last instant", t0.Add(month - time.Nanosecond), true},
		{"exact expiry", t0.Add(month), false},
		{"after expiry", t0.Add(month + time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.Set(tt.at)
			ok, err := s.IsEntitled(ctx, "abc123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestGrantReplacesNotExtends(t *testing.T) {
	s, clk, _ := testSetup(t)
	ctx := context.Background()
	t0 := clk.Now()

	require.NoError(t, s.Grant(ctx, "abc123", month))

	// A shorter grant later must shrink the expiry to T2+D2.
	clk.Set(t0.Add(24 * time.Hour))
	t2 := clk.Now()
	require.NoError(t, s.Grant(ctx, "abc123", time.Hour))

	e, found, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, e.ExpiresAt.Equal(t2.Add(time.Hour)), "expires_at = %v", e.ExpiresAt)
	assert.True(t, e.ActivatedAt.Equal(t2))

	clk.Set(t2.Add(2 * time.Hour))
	ok, err := s.IsEntitled(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok, "old 30-day expiry must not survive a replacing grant")

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM premium_users WHERE user_hash = 'abc123'`).Scan(&rows))
	assert.Equal(t, 1, rows, "at most one record per identity")
}

func TestGrantIdempotent(t *testing.T) {
	s, _, _ := testSetup(t)
	ctx := context.Background()

	require.NoError(t, s.Grant(ctx, "abc123", month))
	first, _, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)

	require.NoError(t, s.Grant(ctx, "abc123", month))
	second, _, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
}

func TestGrantRejectsBadInput(t *testing.T) {
	s, _, _ := testSetup(t)
	ctx := context.Background()

	assert.Error(t, s.Grant(ctx, "", month))
	assert.Error(t, s.Grant(ctx, "abc123", 0))
	assert.Error(t, s.Grant(ctx, "abc123", -time.Hour))
}

func TestIsEntitledRepeatable(t *testing.T) {
	s, _, _ := testSetup(t)
	ctx := context.Background()
	require.NoError(t, s.Grant(ctx, "abc123", month))

	for i := 0; i < 3; i++ {
		ok, err := s.IsEntitled(ctx, "abc123")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestExpiredRowIsKept(t *testing.T) {
	s, clk, _ := testSetup(t)
	ctx := context.Background()
	require.NoError(t, s.Grant(ctx, "abc123", time.Hour))

	clk.Advance(2 * time.Hour)
	ok, err := s.IsEntitled(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, found, "expired grants are not deleted")
}

func TestLookupMissing(t *testing.T) {
	s, _, _ := testSetup(t)
	_, found, err := s.Lookup(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIsEntitledFailsClosed(t *testing.T) {
	s, _, db := testSetup(t)
	ctx := context.Background()
	require.NoError(t, s.Grant(ctx, "abc123", month))
	require.NoError(t, db.Close())

	ok, err := s.IsEntitled(ctx, "abc123")
	assert.Error(t, err)
	assert.False(t, ok, "store failure must read as not entitled")
}

func TestGrantSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.db")
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	db, err := store.Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, NewSQLStore(db, WithClock(clk.Now)).Grant(context.Background(), "abc123", month))
	require.NoError(t, db.Close())

	db, err = store.Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer db.Close()

	ok, err := NewSQLStore(db, WithClock(clk.Now)).IsEntitled(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantOnceConsumesCheckout(t *testing.T) {
	s, clk, _ := testSetup(t)
	ctx := context.Background()

	granted, err := s.GrantOnce(ctx, "abc123", month, "cs_test_1")
	require.NoError(t, err)
	assert.True(t, granted)
	first, _, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)

	clk.Advance(29 * 24 * time.Hour)
	granted, err = s.GrantOnce(ctx, "abc123", month, "cs_test_1")
	require.NoError(t, err)
	assert.False(t, granted, "a checkout grants at most once")

	again, _, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, first.ExpiresAt.Equal(again.ExpiresAt), "expiry must not move on a reused checkout")

	granted, err = s.GrantOnce(ctx, "abc123", month, "cs_test_2")
	require.NoError(t, err)
	assert.True(t, granted, "a new checkout renews")
	renewed, _, err := s.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.Equal(clk.Now().Add(month)))
}

func TestGrantOnceValidates(t *testing.T) {
	s, _, _ := testSetup(t)
	ctx := context.Background()

	_, err := s.GrantOnce(ctx, "abc123", month, "")
	assert.Error(t, err)
	_, err = s.GrantOnce(ctx, "", month, "cs_test_1")
	assert.Error(t, err)
	_, err = s.GrantOnce(ctx, "abc123", 0, "cs_test_1")
	assert.Error(t, err)
}
