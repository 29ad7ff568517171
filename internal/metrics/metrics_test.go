// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuthorization("free", true)
		m.ObserveSearchRecorded("free")
		m.ObserveStoreError("entitlement")
		m.ObservePremiumGrant()
		m.ObserveArchiveRequest("ok", 0.2)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAuthorization("free", false)
	m.ObserveAuthorization("free", false)
	m.ObserveAuthorization("premium", true)
	m.ObserveStoreError("ledger")
	m.ObservePremiumGrant()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Authorizations.WithLabelValues("free", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Authorizations.WithLabelValues("premium", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("ledger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PremiumGrants))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSearchRecorded("premium")

	ts := httptest.NewServer(Handler(reg))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `truthfinder_searches_recorded_total{tier="premium"} 1`))
}
