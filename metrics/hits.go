package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"instantanalytics/api/measurement"
)

// HitMetrics counts forwarded hits and times delivery to the collect endpoint.
type HitMetrics struct {
	hits    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewHitMetrics registers the hit metrics on the provided registerer.
func NewHitMetrics(reg prometheus.Registerer) *HitMetrics {
	if reg == nil {
		return &HitMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_hits_total",
		Help: "Measurement Protocol hits by type and outcome.",
	}, []string{"type", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_hit_send_seconds",
		Help:    "Time spent delivering hits to the collect endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(hits, latency)
	return &HitMetrics{hits: hits, latency: latency}
}

func (m *HitMetrics) RecordHit(_ context.Context, hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration) {
	if m == nil || m.hits == nil || hit == nil {
		return
	}
	hitType := normalizeLabel(string(hit.Type))
	m.hits.WithLabelValues(hitType, string(outcome)).Inc()
	if outcome != measurement.OutcomeSuppressed {
		m.latency.WithLabelValues(hitType).Observe(elapsed.Seconds())
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
