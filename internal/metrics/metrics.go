// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the detection engine's Prometheus counters
// and the /metrics and /healthz HTTP endpoints.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the inspector and capture loop update.
// It is constructed once at startup and shared by reference.
type Registry struct {
	BlocksTotal    *prometheus.CounterVec
	PassesTotal    prometheus.Counter
	RRLDropsTotal  prometheus.Counter
	BanEscalations prometheus.Counter
	ParseFailures  prometheus.Counter
	FirewallErrors *prometheus.CounterVec
	TrackedIPs     prometheus.GaugeFunc
	TrackedDomains prometheus.GaugeFunc
}

// Gauges is the callback source for the two GaugeFunc metrics; the
// inspector satisfies it directly.
type Gauges interface {
	TrackedIPCount() int
	TrackedDomainCount() int
}

// NewRegistry builds and registers every metric against reg. Passing a
// fresh prometheus.NewRegistry() keeps test suites from colliding on
// the global default registry.
func NewRegistry(reg *prometheus.Registry, g Gauges) *Registry {
	m := &Registry{
		BlocksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nx53_blocks_total",
			Help: "Total number of queries blocked, by detector.",
		}, []string{"reason"}),
		PassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nx53_passes_total",
			Help: "Total number of queries passed.",
		}),
		RRLDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nx53_rrl_drops_total",
			Help: "Total number of responses dropped by response rate limiting.",
		}),
		BanEscalations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nx53_ban_escalations_total",
			Help: "Total number of rate-limit bans, each of which advances a source's offense count.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nx53_parse_failures_total",
			Help: "Total number of packets dropped for failing to parse as a DNS query.",
		}),
		FirewallErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nx53_firewall_errors_total",
			Help: "Total number of firewall backend call failures, by operation.",
		}, []string{"op"}),
	}
	m.TrackedIPs = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "nx53_tracked_ips",
		Help: "Number of source IPs currently tracked by the inspector.",
	}, func() float64 { return float64(g.TrackedIPCount()) })
	m.TrackedDomains = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "nx53_tracked_domains",
		Help: "Number of distinct domains currently counted by the inspector.",
	}, func() float64 { return float64(g.TrackedDomainCount()) })

	reg.MustRegister(
		m.BlocksTotal, m.PassesTotal, m.RRLDropsTotal, m.BanEscalations,
		m.ParseFailures, m.FirewallErrors, m.TrackedIPs, m.TrackedDomains,
	)
	return m
}

// NewHandler builds the /metrics and /healthz router. healthy is
// polled on every /healthz request, letting the caller wire in
// capture-loop liveness without this package knowing about capture.
func NewHandler(reg *prometheus.Registry, healthy func() bool) http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if healthy != nil && !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unhealthy\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods("GET")
	return router
}
