// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policy is the single entry point the application uses to decide
// whether an identity may search and at which tier. It composes the
// entitlement store, the usage ledger and the rate limiter, and never fails:
// store errors degrade the decision to the free tier instead.
//
// AuthorizeSearch checks the entitlement itself and then asks the limiter for
// the free allowance only. Limiter.Remaining would repeat the IsEntitled
// query, and the facade needs the two failures apart to attribute them.
package policy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/entitlement"
	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/internal/metrics"
	"github.com/pdiddy/truthfinder/internal/ratelimit"
	"github.com/pdiddy/truthfinder/internal/usage"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// DefaultPremiumDuration is the length of a grant when none is configured.
const DefaultPremiumDuration = 30 * 24 * time.Hour

// Facade answers access questions for the rest of the application.
type Facade struct {
	entitlements    entitlement.Store
	ledger          usage.Ledger
	limiter         *ratelimit.Limiter
	premiumDuration time.Duration
	log             logrus.FieldLogger
	metrics         *metrics.Metrics
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the logger used for degraded decisions.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Facade) { f.log = log }
}

// WithMetrics sets the collectors decisions are counted on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Facade) { f.metrics = m }
}

// New builds a Facade from the stores and the policy configuration.
func New(entitlements entitlement.Store, ledger usage.Ledger, cfg types.PolicyConfig, opts ...Option) *Facade {
	d := cfg.PremiumDuration
	if d <= 0 {
		d = DefaultPremiumDuration
	}
	f := &Facade{
		entitlements:    entitlements,
		ledger:          ledger,
		limiter:         ratelimit.New(entitlements, ledger, cfg.FreeDailyCap, cfg.Window),
		premiumDuration: d,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logging.Discard()
	}
	return f
}

// AuthorizeSearch decides whether id may run one search now.
func (f *Facade) AuthorizeSearch(ctx context.Context, id types.Identity) types.Decision {
	d := types.Decision{Tier: types.TierFree}

	entitled, err := f.entitlements.IsEntitled(ctx, id)
	if err != nil {
		f.log.WithError(err).WithField("identity", id.Short()).Warn("entitlement check failed, degrading to free tier")
		f.metrics.ObserveStoreError("entitlement")
		d.Degraded = true
		entitled = false
	}

	if entitled {
		d.Tier = types.TierPremium
		d.Allowed = true
		d.Remaining = ratelimit.Unlimited
	} else {
		remaining, err := f.limiter.FreeRemaining(ctx, id)
		if err != nil {
			f.log.WithError(err).WithField("identity", id.Short()).Warn("usage count failed, treating as zero usage")
			f.metrics.ObserveStoreError("ledger")
			d.Degraded = true
		}
		d.Remaining = remaining
		d.Allowed = remaining > 0
		if !d.Allowed {
			d.Reason = types.ReasonDailyLimit
		}
	}

	d.RowLimit = d.Tier.RowLimit()
	d.DisplayLimit = d.Tier.DisplayLimit()

	f.metrics.ObserveAuthorization(string(d.Tier), d.Allowed)
	return d
}

// RecordSearch appends a completed search to the usage ledger. Callers invoke
// it after the search provider answered, whatever the result count.
func (f *Facade) RecordSearch(ctx context.Context, id types.Identity, tier types.Tier, query string, resultCount int) error {
	if err := f.ledger.Record(ctx, id, query, resultCount); err != nil {
		f.metrics.ObserveStoreError("ledger")
		return err
	}
	f.metrics.ObserveSearchRecorded(string(tier))
	return nil
}

// ActivatePremium records a grant for id after a payment confirmation.
// Any previous grant is replaced.
func (f *Facade) ActivatePremium(ctx context.Context, id types.Identity) error {
	return f.GrantFor(ctx, id, f.premiumDuration)
}

// GrantFor records a grant of length d for id, replacing any previous one.
func (f *Facade) GrantFor(ctx context.Context, id types.Identity, d time.Duration) error {
	if err := f.entitlements.Grant(ctx, id, d); err != nil {
		f.metrics.ObserveStoreError("entitlement")
		return err
	}
	f.metrics.ObservePremiumGrant()
	f.log.WithField("identity", id.Short()).WithField("duration", d).Info("premium activated")
	return nil
}

// ActivateCheckout grants premium for a confirmed checkout. Each checkout id
// grants once; a repeated confirmation reports false and changes nothing.
func (f *Facade) ActivateCheckout(ctx context.Context, id types.Identity, checkoutID string) (bool, error) {
	granted, err := f.entitlements.GrantOnce(ctx, id, f.premiumDuration, checkoutID)
	if err != nil {
		f.metrics.ObserveStoreError("entitlement")
		return false, err
	}
	log := f.log.WithFields(logrus.Fields{"identity": id.Short(), "checkout": checkoutID})
	if !granted {
		log.Warn("checkout already consumed, not granting again")
		return false, nil
	}
	f.metrics.ObservePremiumGrant()
	log.Info("premium activated")
	return true, nil
}

// Status returns the current decision together with the entitlement expiry.
func (f *Facade) Status(ctx context.Context, id types.Identity) types.Status {
	st := types.Status{Identity: id, Decision: f.AuthorizeSearch(ctx, id)}
	e, found, err := f.entitlements.Lookup(ctx, id)
	if err != nil {
		f.log.WithError(err).WithField("identity", id.Short()).Debug("entitlement lookup failed")
		return st
	}
	if found {
		st.ExpiresAt = e.ExpiresAt
	}
	return st
}

// FreeCap returns the configured free-tier search cap.
func (f *Facade) FreeCap() int { return f.limiter.Cap() }

// PremiumDuration returns the length of a grant.
func (f *Facade) PremiumDuration() time.Duration { return f.premiumDuration }
