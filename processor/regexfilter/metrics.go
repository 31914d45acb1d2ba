package regexfilter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/wirestreams/metric"
)

// filterMetrics holds Prometheus metrics for regex filter operations.
type filterMetrics struct {
	componentID string
	records     *prometheus.CounterVec // By component and outcome
	errors      *prometheus.CounterVec // By component
}

// newFilterMetrics looks up or registers the shared regex filter vectors.
func newFilterMetrics(registry *metric.MetricsRegistry, componentID string) (*filterMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	records, err := registry.CounterVec("regex_filter", "records", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "regex_filter",
		Name:      "records_total",
		Help:      "Records seen by the filter, by outcome",
	}, []string{"component", "outcome"}) // outcome: passed, trimmed, emptied, unfiltered
	if err != nil {
		return nil, err
	}

	errs, err := registry.CounterVec("regex_filter", "errors", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "regex_filter",
		Name:      "errors_total",
		Help:      "Records passed through unfiltered because the pattern or filtering failed",
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	return &filterMetrics{componentID: componentID, records: records, errors: errs}, nil
}

func (m *filterMetrics) recordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(m.componentID, outcome).Inc()
}

func (m *filterMetrics) recordError() {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(m.componentID).Inc()
}
