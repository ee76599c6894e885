package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the audit service.
type Metrics struct {
	Registry *prometheus.Registry

	AuditsTotal   *prometheus.CounterVec
	AuditDuration prometheus.Histogram
	AuditScore    prometheus.Histogram
	CacheHits     prometheus.Counter
}

// NewMetrics registers the service collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		AuditsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faro_audits_total",
			Help: "Audits run, labeled by outcome.",
		}, []string{"outcome"}),
		AuditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faro_audit_duration_seconds",
			Help:    "End-to-end audit duration, fetch included.",
			Buckets: prometheus.DefBuckets,
		}),
		AuditScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faro_audit_score",
			Help:    "Distribution of global scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faro_report_cache_hits_total",
			Help: "Reports served from the snapshot-hash cache.",
		}),
	}

	reg.MustRegister(m.AuditsTotal, m.AuditDuration, m.AuditScore, m.CacheHits)
	return m
}

func (m *Metrics) ObserveAudit(outcome string, score int, d time.Duration) {
	if m == nil {
		return
	}
	m.AuditsTotal.WithLabelValues(outcome).Inc()
	m.AuditDuration.Observe(d.Seconds())
	if outcome == "ok" {
		m.AuditScore.Observe(float64(score))
	}
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}
