// Package metrics provides Prometheus metrics for the verification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all verification engine metrics.
type Metrics struct {
	ScansTotal        *prometheus.CounterVec // Scans by terminal outcome
	SignatureFailures prometheus.Counter     // Invalid or unsupported-algorithm signatures
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	CacheEntries      prometheus.Gauge
	ReconcileDuration prometheus.Histogram // Store round-trip latency per reconcile
	ScanDuration      prometheus.Histogram // Full pipeline latency per scan
}

// New creates a Metrics instance with all metrics registered on the default
// registry.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagepass_scans_total",
			Help: "Total number of credential scans by terminal outcome",
		}, []string{"outcome"}),
		SignatureFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagepass_signature_failures_total",
			Help: "Total number of scans rejected at the trust layer",
		}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagepass_cache_hits_total",
			Help: "Total number of verification cache hits",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagepass_cache_misses_total",
			Help: "Total number of verification cache misses",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagepass_cache_entries",
			Help: "Current number of entries in the verification cache",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stagepass_reconcile_duration_seconds",
			Help:    "Duration of record reconciliation including the store round-trip",
			Buckets: prometheus.DefBuckets,
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stagepass_scan_duration_seconds",
			Help:    "Duration of the full verification pipeline per scan",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordScan records a completed scan with its terminal outcome.
func (m *Metrics) RecordScan(outcome string, durationSeconds float64) {
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(durationSeconds)
}

// RecordCacheHit records a verification cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a verification cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// RecordSignatureFailure records a trust-layer rejection.
func (m *Metrics) RecordSignatureFailure() {
	m.SignatureFailures.Inc()
}

// ObserveReconcile records the duration of one reconciliation.
func (m *Metrics) ObserveReconcile(durationSeconds float64) {
	m.ReconcileDuration.Observe(durationSeconds)
}

// SetCacheEntries updates the cache size gauge.
func (m *Metrics) SetCacheEntries(n int) {
	m.CacheEntries.Set(float64(n))
}
