// Package metrics defines the Prometheus instruments of the scoring engine.
// They are registered with the default registry and never served over HTTP;
// callers may gather them with prometheus.DefaultGatherer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uraniborg"

var (
	// Assessments counts completed device assessments.
	// Labels: rating
	Assessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregator",
		Name:      "assessments_total",
		Help:      "Total device assessments by rating band",
	}, []string{"rating"})

	// MetricScore tracks the distribution of weighted metric scores.
	// Labels: metric
	MetricScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analyzer",
		Name:      "weighted_score",
		Help:      "Distribution of weighted metric scores",
		Buckets:   []float64{0, 0.25, 0.5, 1, 1.5, 2, 3, 4, 5, 6},
	}, []string{"metric"})

	// UnavailableMetrics counts metrics that were requested but could not be computed.
	// Labels: metric
	UnavailableMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregator",
		Name:      "unavailable_metrics_total",
		Help:      "Total requested metrics that had no scorer",
	}, []string{"metric"})

	// PolicyMismatches counts whitelisted packages signed by an unexpected certificate.
	// Labels: kind (installer, gms)
	PolicyMismatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "whitelist",
		Name:      "policy_mismatches_total",
		Help:      "Total whitelist entries whose signer did not match",
	}, []string{"kind"})

	// BaselineLoads counts baseline dataset loads.
	// Labels: dataset, source (embedded, dir, redis), status (success, error)
	BaselineLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "baseline",
		Name:      "loads_total",
		Help:      "Total baseline dataset loads",
	}, []string{"dataset", "source", "status"})
)

// RecordBaselineLoad increments the load counter with a status derived from err
func RecordBaselineLoad(dataset, source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BaselineLoads.WithLabelValues(dataset, source, status).Inc()
}
