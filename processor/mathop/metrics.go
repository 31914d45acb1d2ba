package mathop

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/wirestreams/metric"
)

// transformMetrics holds Prometheus metrics for math transform operations.
type transformMetrics struct {
	componentID string
	records     *prometheus.CounterVec   // By component and outcome
	duration    *prometheus.HistogramVec // By component
}

func newTransformMetrics(registry *metric.MetricsRegistry, componentID string) (*transformMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	records, err := registry.CounterVec("math_transform", "records", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "math_transform",
		Name:      "records_total",
		Help:      "Records handled by the transform, by outcome",
	}, []string{"component", "outcome"}) // outcome: computed, skipped
	if err != nil {
		return nil, err
	}

	duration, err := registry.HistogramVec("math_transform", "envelope_duration", prometheus.HistogramOpts{
		Namespace: metric.Namespace,
		Subsystem: "math_transform",
		Name:      "envelope_duration_seconds",
		Help:      "Time spent transforming one envelope",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	return &transformMetrics{componentID: componentID, records: records, duration: duration}, nil
}

func (m *transformMetrics) recordComputed() {
	if m == nil {
		return
	}
	m.records.WithLabelValues(m.componentID, "computed").Inc()
}

func (m *transformMetrics) recordSkipped() {
	if m == nil {
		return
	}
	m.records.WithLabelValues(m.componentID, "skipped").Inc()
}

func (m *transformMetrics) recordDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(m.componentID).Observe(d.Seconds())
}
