// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit caps searches for identities without a premium grant.
// It counts recent entries in the usage ledger over a trailing window.
//
// The check is advisory. Allow and the subsequent ledger append are separate
// statements, so concurrent sessions sharing an identity can overshoot the cap
// by at most the number of racers.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/pdiddy/truthfinder/internal/entitlement"
	"github.com/pdiddy/truthfinder/internal/usage"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Unlimited is returned by Remaining for entitled identities.
const Unlimited = math.MaxInt

const (
	DefaultCap    = 5
	DefaultWindow = 24 * time.Hour
)

// Limiter computes remaining searches per identity.
type Limiter struct {
	entitlements entitlement.Store
	ledger       usage.Ledger
	cap          int
	window       time.Duration
}

// New returns a Limiter. A non-positive cap or window falls back to the
// defaults (5 per 24h).
func New(entitlements entitlement.Store, ledger usage.Ledger, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultCap
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{entitlements: entitlements, ledger: ledger, cap: limit, window: window}
}

// Cap returns the configured free-tier cap.
func (l *Limiter) Cap() int { return l.cap }

// Window returns the configured trailing window.
func (l *Limiter) Window() time.Duration { return l.window }

// Remaining returns Unlimited for entitled identities and the free-tier
// allowance otherwise. An entitlement error falls through to the free-tier
// computation; the error is still returned.
func (l *Limiter) Remaining(ctx context.Context, id types.Identity) (int, error) {
	entitled, entErr := l.entitlements.IsEntitled(ctx, id)
	if entitled {
		return Unlimited, nil
	}
	n, err := l.FreeRemaining(ctx, id)
	if entErr != nil {
		return n, entErr
	}
	return n, err
}

// FreeRemaining returns max(0, cap - count) ignoring entitlements. A ledger
// error counts as zero usage.
func (l *Limiter) FreeRemaining(ctx context.Context, id types.Identity) (int, error) {
	used, err := l.ledger.CountSince(ctx, id, l.window)
	if err != nil {
		used = 0
	}
	return max(0, l.cap-used), err
}

// Allow reports whether id may perform one more search now.
func (l *Limiter) Allow(ctx context.Context, id types.Identity) (bool, error) {
	n, err := l.Remaining(ctx, id)
	return n == Unlimited || n > 0, err
}
