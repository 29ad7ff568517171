// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for policy decisions, store
// failures and archive calls.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so components can be built without a registry (CLI one-shots, tests).
type Metrics struct {
	Authorizations   *prometheus.CounterVec
	SearchesRecorded *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
	PremiumGrants    prometheus.Counter
	ArchiveRequests  *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthfinder_authorizations_total",
				Help: "Search authorization decisions.",
			},
			[]string{"tier", "allowed"},
		),
		SearchesRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthfinder_searches_recorded_total",
				Help: "Searches appended to the usage ledger.",
			},
			[]string{"tier"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthfinder_store_errors_total",
				Help: "Store failures absorbed by a fallback.",
			},
			[]string{"component"},
		),
		PremiumGrants: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "truthfinder_premium_grants_total",
				Help: "Premium entitlements granted.",
			},
		),
		ArchiveRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "truthfinder_archive_request_duration_seconds",
				Help:    "Archive search request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(m.Authorizations, m.SearchesRecorded, m.StoreErrors, m.PremiumGrants, m.ArchiveRequests)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAuthorization(tier string, allowed bool) {
	if m == nil {
		return
	}
	m.Authorizations.WithLabelValues(tier, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) ObserveSearchRecorded(tier string) {
	if m == nil {
		return
	}
	m.SearchesRecorded.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveStoreError(component string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(component).Inc()
}

func (m *Metrics) ObservePremiumGrant() {
	if m == nil {
		return
	}
	m.PremiumGrants.Inc()
}

func (m *Metrics) ObserveArchiveRequest(result string, seconds float64) {
	if m == nil {
		return
	}
	m.ArchiveRequests.WithLabelValues(result).Observe(seconds)
}
