// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGauges struct {
	ips, domains int
}

func (f fakeGauges) TrackedIPCount() int     { return f.ips }
func (f fakeGauges) TrackedDomainCount() int { return f.domains }

func TestHealthzReportsHealthy(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg, fakeGauges{ips: 3, domains: 5})
	handler := NewHandler(reg, func() bool { return true })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzReportsUnhealthy(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg, fakeGauges{})
	handler := NewHandler(reg, func() bool { return false })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg, fakeGauges{ips: 1, domains: 1})
	m.BlocksTotal.WithLabelValues("rate_limit").Inc()
	handler := NewHandler(reg, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nx53_blocks_total")
}
