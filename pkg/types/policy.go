// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for truthfinder.
// Covers the usage-gating subsystem (Identity, Entitlement, UsageRecord,
// Decision), archive documents, and configuration.
package types

import "time"

// Identity is the opaque per-session token that keys entitlements and usage.
// It is a 16-character lowercase hex string. Identities are not stable across
// sessions or devices: a new session always yields a new identity.
type Identity string

// String returns the identity as a plain string.
func (id Identity) String() string { return string(id) }

// Short returns the first 8 characters, used where the full token should not
// be echoed back (export reports, log lines).
func (id Identity) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Tier is the service tier a decision grants.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// RowLimit is the number of rows requested from the search provider.
func (t Tier) RowLimit() int {
	if t == TierPremium {
		return 20
	}
	return 10
}

// DisplayLimit is the number of documents shown to the user.
func (t Tier) DisplayLimit() int {
	if t == TierPremium {
		return 15
	}
	return 5
}

// IsPremium reports whether the tier unlocks analytics, AI analysis and export.
func (t Tier) IsPremium() bool { return t == TierPremium }

// Reasons attached to a denied or degraded decision.
const (
	ReasonDailyLimit = "daily_limit_reached"
)

// Decision is the result of asking whether an identity may search.
type Decision struct {
	Tier    Tier   `json:"tier" yaml:"tier"`
	Allowed bool   `json:"allowed" yaml:"allowed"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Remaining is the number of searches left in the current window.
	// Premium decisions carry ratelimit.Unlimited.
	Remaining int `json:"remaining" yaml:"remaining"`

	// RowLimit and DisplayLimit are derived from Tier.
	RowLimit     int `json:"row_limit" yaml:"row_limit"`
	DisplayLimit int `json:"display_limit" yaml:"display_limit"`

	// Degraded is set when a store error forced a fallback value.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Status is a Decision plus the entitlement details shown on a status page.
type Status struct {
	Identity Identity `json:"identity" yaml:"identity"`
	Decision Decision `json:"decision" yaml:"decision"`

	// ExpiresAt is the premium expiry; zero when the identity was never granted.
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Entitlement is a premium grant for one identity. At most one record exists
// per identity; a new grant replaces the previous one.
type Entitlement struct {
	Identity    Identity  `json:"identity" yaml:"identity"`
	ActivatedAt time.Time `json:"activated_at" yaml:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at" yaml:"expires_at"`
}

// UsageRecord is one logged search action.
type UsageRecord struct {
	ID          int64     `json:"id" yaml:"id"`
	Identity    Identity  `json:"identity" yaml:"identity"`
	Query       string    `json:"query" yaml:"query"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	ResultCount int       `json:"result_count" yaml:"result_count"`
}
