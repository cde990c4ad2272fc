package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the platform's Prometheus collectors. It satisfies
// graph.OperationRecorder and graph.ParityRecorder so backend decorators
// can export their counts.
type Metrics struct {
	registry *prometheus.Registry

	GraphOperations     *prometheus.CounterVec
	ParityDiscrepancies *prometheus.CounterVec
	ShadowErrors        *prometheus.CounterVec
	DetectionDuration   prometheus.Histogram
	EntitiesDetected    prometheus.Counter
	NodesPersisted      prometheus.Counter
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		GraphOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_graph_operations_total",
			Help: "Graph backend operations by backend, operation and status.",
		}, []string{"backend", "operation", "status"}),
		ParityDiscrepancies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_parity_discrepancies_total",
			Help: "Result mismatches between the primary and shadow backends.",
		}, []string{"operation"}),
		ShadowErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_shadow_errors_total",
			Help: "Shadow backend failures for operations the primary completed.",
		}, []string{"operation"}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foundation_detection_duration_seconds",
			Help:    "Wall time of pattern detection runs.",
			Buckets: prometheus.DefBuckets,
		}),
		EntitiesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foundation_entities_detected_total",
			Help: "Entity candidates accepted by pattern detection.",
		}),
		NodesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foundation_nodes_persisted_total",
			Help: "Nodes written to the graph backend by scans.",
		}),
	}

	registry.MustRegister(
		m.GraphOperations,
		m.ParityDiscrepancies,
		m.ShadowErrors,
		m.DetectionDuration,
		m.EntitiesDetected,
		m.NodesPersisted,
	)
	return m
}

// RecordOperation implements graph.OperationRecorder.
func (m *Metrics) RecordOperation(backend, operation, status string) {
	m.GraphOperations.WithLabelValues(backend, operation, status).Inc()
}

// RecordDiscrepancy implements graph.ParityRecorder.
func (m *Metrics) RecordDiscrepancy(operation string) {
	m.ParityDiscrepancies.WithLabelValues(operation).Inc()
}

// RecordShadowError implements graph.ParityRecorder.
func (m *Metrics) RecordShadowError(operation string) {
	m.ShadowErrors.WithLabelValues(operation).Inc()
}

// ObserveDetection records one pattern detection run.
func (m *Metrics) ObserveDetection(duration time.Duration, entities int) {
	m.DetectionDuration.Observe(duration.Seconds())
	m.EntitiesDetected.Add(float64(entities))
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
