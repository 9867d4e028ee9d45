// Package metrics exposes prometheus collectors for discovery runs,
// enrichment requests and theme cache lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "library_themes"

// Metrics implements themes.Recorder and enrich.Observer.
type Metrics struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	enrichment *prometheus.CounterVec
	cache      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_runs_total",
				Help:      "Discovery runs by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discovery_duration_seconds",
				Help:      "Wall time of discovery runs.",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
			},
		),
		enrichment: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_requests_total",
				Help:      "External metadata requests by service and outcome.",
			},
			[]string{"service", "outcome"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Theme cache lookups by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.runs, m.duration, m.enrichment, m.cache)
	return m
}

// DiscoveryFinished records one run.
func (m *Metrics) DiscoveryFinished(outcome string, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// CacheLookup records a theme cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// EnrichmentRequest records one request to an external service.
func (m *Metrics) EnrichmentRequest(service, outcome string) {
	m.enrichment.WithLabelValues(service, outcome).Inc()
}
