// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/truthfinder/internal/analysis"
	"github.com/pdiddy/truthfinder/internal/entitlement"
	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/policy"
	"github.com/pdiddy/truthfinder/internal/ratelimit"
	"github.com/pdiddy/truthfinder/internal/report"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/internal/secrets"
	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/internal/usage"
	"github.com/pdiddy/truthfinder/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRUTHFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, types.DefaultConfig())
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfigEnvAndSecrets(t *testing.T) {
	t.Setenv("TRUTHFINDER_POLICY_FREE_DAILY_CAP", "7")
	t.Setenv("TRUTHFINDER_POLICY_WINDOW", "12h")
	t.Setenv("TRUTHFINDER_SEARCH_TIMEOUT", "5s")
	t.Setenv("TRUTHFINDER_SESSION_BACKEND", "redis")

	cfg, err := loadConfig(newTestViper(), map[string]string{
		secrets.StripeSecretKey:  "sk_test_1",
		secrets.HuggingFaceToken: "hf_1",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Policy.FreeDailyCap)
	assert.Equal(t, 12*time.Hour, cfg.Policy.Window)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, types.SessionRedis, cfg.Session.Backend)
	assert.Equal(t, "sk_test_1", cfg.Payment.SecretKey)
	assert.Equal(t, "hf_1", cfg.Analysis.Token)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truthfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /tmp/tf.db
payment:
  secret_key: sk_from_file
  price_cents: 1500
`), 0o644))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v, map[string]string{secrets.StripeSecretKey: "sk_from_secrets"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tf.db", cfg.Store.Path)
	assert.Equal(t, 1500, cfg.Payment.PriceCents)
	assert.Equal(t, "sk_from_file", cfg.Payment.SecretKey, "explicit config wins over the secrets dir")
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TRUTHFINDER_SESSION_BACKEND", "memcached")
	_, err := loadConfig(newTestViper(), nil)
	assert.ErrorContains(t, err, "memcached")
}

func freeDecision(remaining int) types.Decision {
	return types.Decision{
		Tier: types.TierFree, Allowed: remaining > 0, Remaining: remaining,
		RowLimit: types.TierFree.RowLimit(), DisplayLimit: types.TierFree.DisplayLimit(),
	}
}

func TestPrintResult(t *testing.T) {
	dr := analysis.DateRange{From: 1961, To: 1975}
	res := research.Result{
		Query:        "bay of pigs",
		Decision:     types.Decision{Tier: types.TierPremium, Allowed: true, Remaining: ratelimit.Unlimited},
		TotalResults: 3,
		Documents: []types.Document{
			{Identifier: "bay-of-pigs-1961", Title: "CIA Report", Date: "1961-04-20"},
			{Identifier: "bad id", Title: "Undated"},
		},
		Timeline:  []analysis.YearCount{{Year: 1961, Count: 2}},
		Analytics: &analysis.Summary{SuppressionIndex: 8, DateRange: &dr, GovSources: 1},
		Sentiment: &analysis.Sentiment{Available: false, Message: "AI analysis temporarily unavailable"},
	}

	var b strings.Builder
	printResult(&b, res)
	out := b.String()

	assert.Contains(t, out, `Found 3 documents for "bay of pigs" (premium tier, unlimited searches left)`)
	assert.Contains(t, out, "Showing 2 of 3.")
	assert.Contains(t, out, " 1. CIA Report (1961-04-20)")
	assert.Contains(t, out, "https://archive.org/details/bay-of-pigs-1961")
	assert.Contains(t, out, " 2. Undated (undated)")
	assert.Contains(t, out, "1961 ##")
	assert.Contains(t, out, "Suppression index:  8/10")
	assert.Contains(t, out, "1961 - 1975")
	assert.Contains(t, out, "AI analysis temporarily unavailable")
}

func TestPrintResultDenied(t *testing.T) {
	res := research.Result{
		Decision: types.Decision{Tier: types.TierFree, Reason: types.ReasonDailyLimit},
		Sources:  []types.Link{{Group: "Government", Label: "FBI Records", URL: "https://vault.fbi.gov/search?q=x"}},
	}
	var b strings.Builder
	printResult(&b, res)
	assert.Contains(t, b.String(), "Daily limit reached")
	assert.Contains(t, b.String(), "[Government] FBI Records")
	assert.NotContains(t, b.String(), "Found")
}

func TestPrintStatus(t *testing.T) {
	var b strings.Builder
	printStatus(&b, types.Status{
		Identity: "0123456789abcdef",
		Decision: types.Decision{Tier: types.TierFree, Remaining: 0, Degraded: true},
	})
	assert.Contains(t, b.String(), "Remaining: 0")
	assert.Contains(t, b.String(), "store unavailable")
	assert.NotContains(t, b.String(), "Expires")
}

type fakeStatus struct{ calls []types.Identity }

func (f *fakeStatus) Status(_ context.Context, id types.Identity) types.Status {
	f.calls = append(f.calls, id)
	return types.Status{Identity: id, Decision: freeDecision(4)}
}

type fakeResearch struct {
	ids     []types.Identity
	premium bool
}

func (f *fakeResearch) Run(_ context.Context, id types.Identity, q string) (research.Result, error) {
	f.ids = append(f.ids, id)
	if strings.TrimSpace(q) == "!!!" {
		return research.Result{}, research.ErrInvalidQuery
	}
	if q == "down" {
		return research.Result{}, errors.New("archive unreachable")
	}
	res := research.Result{Query: q, Decision: freeDecision(3), TotalResults: 1,
		Documents: []types.Document{{Identifier: "doc-1", Title: "Doc", Date: "1970"}}}
	if f.premium {
		r := report.Build(q, id, res.Documents, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		res.Report = &r
	}
	return res, nil
}

func TestShellSessionUsesOneIdentity(t *testing.T) {
	st := &fakeStatus{}
	rs := &fakeResearch{}
	var out strings.Builder
	sh := &shell{
		in:       strings.NewReader("jfk files\n\n:status\n!!!\ndown\n:bogus\n:upgrade\nmk ultra\n:quit\nnever reached\n"),
		out:      &out,
		ids:      identity.NewProvider(nil),
		policy:   st,
		research: rs,
	}

	require.NoError(t, sh.run(context.Background()))

	require.Len(t, rs.ids, 4)
	require.Len(t, st.calls, 1)
	for _, id := range rs.ids {
		assert.Equal(t, rs.ids[0], id)
	}
	assert.Equal(t, rs.ids[0], st.calls[0])
	assert.True(t, identity.Valid(rs.ids[0].String()))

	text := out.String()
	assert.Contains(t, text, "Invalid search query.")
	assert.Contains(t, text, "error: archive unreachable")
	assert.Contains(t, text, "unknown command :bogus")
	assert.Contains(t, text, "Payment system temporarily unavailable.")
	assert.Contains(t, text, "Remaining: 4")
	assert.NotContains(t, text, "never reached")
}

func TestShellExport(t *testing.T) {
	dir := t.TempDir()
	rs := &fakeResearch{}
	var out strings.Builder
	sh := &shell{
		out:       &out,
		ids:       identity.NewProvider(nil),
		policy:    &fakeStatus{},
		research:  rs,
		exportDir: dir,
	}
	ctx := context.Background()

	sh.handle(ctx, ":export")
	assert.Contains(t, out.String(), "Nothing to export")

	sh.handle(ctx, "cold war")
	sh.handle(ctx, ":export")
	assert.Contains(t, out.String(), "Nothing to export", "free results carry no report")

	rs.premium = true
	sh.handle(ctx, "cold war")
	sh.handle(ctx, ":export yaml")
	_, err := os.Stat(filepath.Join(dir, "research_cold_war.yaml"))
	assert.NoError(t, err)

	out.Reset()
	sh.handle(ctx, ":export xml")
	assert.Contains(t, out.String(), "unknown report format")
}

func TestGrantPremiumReportsStoredExpiry(t *testing.T) {
	db, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "searches.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	facade := policy.New(
		entitlement.NewSQLStore(db, entitlement.WithClock(clock)),
		usage.NewSQLLedger(db, usage.WithClock(clock)),
		types.PolicyConfig{},
	)
	ctx := context.Background()

	var out strings.Builder
	require.NoError(t, grantPremium(ctx, &out, facade, "0123456789abcdef", 48*time.Hour))
	assert.Equal(t, "Granted premium to 01234567 until 2025-03-03T10:00:00Z\n", out.String())
	assert.Equal(t, types.TierPremium, facade.Status(ctx, "0123456789abcdef").Decision.Tier)

	out.Reset()
	assert.Error(t, grantPremium(ctx, &out, facade, "0123456789abcdef", 0))
	assert.Empty(t, out.String())
}
