// Package telemetry provides Prometheus metrics for the inference
// pipeline: batch throughput, per-stage failures, latency and prediction
// confidence, all labelled by dataset variant where that matters.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the pipeline emits.
type Metrics struct {
	// Batch metrics
	BatchesTotal  *prometheus.CounterVec // Completed prediction batches per variant
	BatchFailures *prometheus.CounterVec // Failed batches per variant and stage
	RowsPredicted *prometheus.CounterVec // Rows scored per variant

	// Latency
	BatchDuration *prometheus.HistogramVec // End-to-end batch latency per variant

	// Prediction quality
	Confidence    *prometheus.HistogramVec // Blended winning-class probability
	DegradedUsage prometheus.Counter       // Batches decoded without a label encoder

	// Input diagnostics
	DroppedColumns  prometheus.Counter // Extra input columns discarded
	DefaultedValues prometheus.Counter // Optional raw columns filled with defaults
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry, which keeps tests
// isolated from the global state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_batches_total",
			Help: "Completed prediction batches",
		}, []string{"variant"}),
		BatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_batch_failures_total",
			Help: "Failed prediction batches by pipeline stage",
		}, []string{"variant", "stage"}),
		RowsPredicted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_rows_predicted_total",
			Help: "Rows scored",
		}, []string{"variant"}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transit_batch_duration_seconds",
			Help:    "End-to-end prediction batch latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"variant"}),
		Confidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transit_prediction_confidence",
			Help:    "Blended probability of the winning class",
			Buckets: prometheus.LinearBuckets(0.05, 0.05, 19),
		}, []string{"variant"}),
		DegradedUsage: factory.NewCounter(prometheus.CounterOpts{
			Name: "transit_degraded_label_batches_total",
			Help: "Batches served with stringified class indices because the label encoder was unavailable",
		}),
		DroppedColumns: factory.NewCounter(prometheus.CounterOpts{
			Name: "transit_dropped_columns_total",
			Help: "Input columns outside the feature contract that were discarded",
		}),
		DefaultedValues: factory.NewCounter(prometheus.CounterOpts{
			Name: "transit_defaulted_columns_total",
			Help: "Optional raw columns filled with their neutral default",
		}),
	}
}
