// Package metrics exposes pipeline measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// Metrics implements ports.SyncMetrics.
type Metrics struct {
	// Entity outcomes by validation status, or "failed"
	EntitiesTotal *prometheus.CounterVec

	// Oracle attempts by provider and final outcome
	OracleAttempts *prometheus.CounterVec

	// Wall time of one FetchFinding call including retries
	OracleDuration *prometheus.HistogramVec

	RunsTotal *prometheus.CounterVec

	MediaJobsDropped prometheus.Counter
}

// New registers the pipeline metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EntitiesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lore_sync_entities_total",
			Help: "Entities processed by validation status",
		}, []string{"status"}),

		OracleAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lore_sync_oracle_attempts_total",
			Help: "Oracle call attempts by provider and outcome",
		}, []string{"provider", "outcome"}),

		OracleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lore_sync_oracle_duration_seconds",
			Help:    "Duration of oracle lookups including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lore_sync_runs_total",
			Help: "Finished batch runs by terminal state",
		}, []string{"state"}),

		MediaJobsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "lore_sync_media_jobs_dropped_total",
			Help: "Media jobs that could not be enqueued",
		}),
	}
}

// ObserveEntity records one entity outcome.
func (m *Metrics) ObserveEntity(status string) {
	if m != nil {
		m.EntitiesTotal.WithLabelValues(status).Inc()
	}
}

// ObserveOracleCall records one oracle lookup.
func (m *Metrics) ObserveOracleCall(provider, outcome string, attempts int, d time.Duration) {
	if m != nil {
		m.OracleAttempts.WithLabelValues(provider, outcome).Add(float64(attempts))
		m.OracleDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(state entities.RunState) {
	if m != nil {
		m.RunsTotal.WithLabelValues(string(state)).Inc()
	}
}

// ObserveMediaJobDropped records a media job that was not delivered.
func (m *Metrics) ObserveMediaJobDropped() {
	if m != nil {
		m.MediaJobsDropped.Inc()
	}
}
