package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scan engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Signal source latencies by source id
	SourceLatency *prometheus.HistogramVec

	// Signal source outcomes: detected, clean, not_applicable or an error kind
	SourceOutcome *prometheus.CounterVec

	// Verdicts by subject kind and threat level
	Verdicts *prometheus.CounterVec

	// Full scan latency by subject kind
	ScanLatency *prometheus.HistogramVec

	// Memoization cache lookups
	CacheLookups *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in production
// and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seniorguard_source_duration_seconds",
			Help:    "Duration of signal source checks by source",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),

		SourceOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seniorguard_source_outcomes_total",
			Help: "Signal source outcomes by source and outcome",
		}, []string{"source", "outcome"}),

		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seniorguard_verdicts_total",
			Help: "Completed scans by subject kind and threat level",
		}, []string{"kind", "level"}),

		ScanLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seniorguard_scan_duration_seconds",
			Help:    "Duration of a full scan including every signal source",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"kind"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seniorguard_cache_lookups_total",
			Help: "Verdict cache lookups by result (hit, miss)",
		}, []string{"result"}),
	}
}

// ObserveSource records one signal source check.
func (m *Metrics) ObserveSource(source, outcome string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
		m.SourceOutcome.WithLabelValues(source, outcome).Inc()
	}
}

// ObserveVerdict records a completed scan.
func (m *Metrics) ObserveVerdict(kind, level string, d time.Duration) {
	if m != nil {
		m.Verdicts.WithLabelValues(kind, level).Inc()
		m.ScanLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// CacheHit records a verdict served from cache.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records a verdict that had to be computed.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}
