package recordstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/wirestreams/metric"
)

// sinkMetrics holds Prometheus metrics for record store operations.
type sinkMetrics struct {
	componentID string
	operations  *prometheus.CounterVec   // By component, operation and status
	stored      *prometheus.CounterVec   // By component
	latency     *prometheus.HistogramVec // By component and operation
}

func newSinkMetrics(registry *metric.MetricsRegistry, componentID string) (*sinkMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	operations, err := registry.CounterVec("record_store", "operations", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "record_store",
		Name:      "operations_total",
		Help:      "Store operations by outcome",
	}, []string{"component", "operation", "status"}) // operation: insert, truncate, count
	if err != nil {
		return nil, err
	}

	stored, err := registry.CounterVec("record_store", "records_stored", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "record_store",
		Name:      "records_stored_total",
		Help:      "Records committed to the table",
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	latency, err := registry.HistogramVec("record_store", "operation_duration", prometheus.HistogramOpts{
		Namespace: metric.Namespace,
		Subsystem: "record_store",
		Name:      "operation_duration_seconds",
		Help:      "Store operation latency",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"component", "operation"})
	if err != nil {
		return nil, err
	}

	return &sinkMetrics{componentID: componentID, operations: operations, stored: stored, latency: latency}, nil
}

func (m *sinkMetrics) recordOperation(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.operations.WithLabelValues(m.componentID, operation, status).Inc()
	m.latency.WithLabelValues(m.componentID, operation).Observe(d.Seconds())
}

func (m *sinkMetrics) recordStored(n int) {
	if m == nil {
		return
	}
	m.stored.WithLabelValues(m.componentID).Add(float64(n))
}
