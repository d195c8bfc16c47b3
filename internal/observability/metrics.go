// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	SimulationsTotal     *prometheus.CounterVec
	SimulationRuns       prometheus.Counter
	SimulationDuration   prometheus.Histogram
	StressPathsEvaluated prometheus.Counter

	// Parameter store metrics
	ParamWritesAccepted *prometheus.CounterVec
	ParamWritesRejected *prometheus.CounterVec
	ParamBulkImports    prometheus.Counter
	ParamLookups        prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "finplan_lab"
	}

	return &Metrics{
		SimulationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Total simulations executed, by outcome.",
		}, []string{"status"}),
		SimulationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_runs_total",
			Help:      "Total Monte Carlo runs executed across all simulations.",
		}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of full simulation calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		StressPathsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stress_paths_evaluated_total",
			Help:      "Total deterministic stress paths evaluated.",
		}),

		ParamWritesAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_writes_accepted_total",
			Help:      "Parameter writes accepted by the priority gate, by source.",
		}, []string{"source"}),
		ParamWritesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_writes_rejected_total",
			Help:      "Parameter writes rejected by the priority gate, by source.",
		}, []string{"source"}),
		ParamBulkImports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_bulk_imports_total",
			Help:      "Bulk imports applied through the priority-bypass path.",
		}),
		ParamLookups: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_lookups_total",
			Help:      "Parameter lookups served.",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration by backend and operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"backend", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Database query errors by backend and operation.",
		}, []string{"backend", "operation"}),
	}
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
