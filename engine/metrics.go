package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/wirestreams/metric"
)

// managerMetrics holds Prometheus metrics for graph manager operations.
type managerMetrics struct {
	propagations        *prometheus.CounterVec // By status (ok/partial)
	deliveries          *prometheus.CounterVec // By receiving component
	failures            *prometheus.CounterVec // By component and reason
	reconfigurations    *prometheus.CounterVec // By status (success/failure)
	validationErrors    *prometheus.CounterVec // By issue kind
	propagationDuration prometheus.Histogram
	activeComponents    prometheus.Gauge
}

// newManagerMetrics creates and registers manager metrics with the provided registry.
func newManagerMetrics(registry *metric.MetricsRegistry) (*managerMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &managerMetrics{
		propagations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "propagations_total",
			Help:      "Top-level propagations by outcome",
		}, []string{"status"}), // status: ok, partial

		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "deliveries_total",
			Help:      "Envelopes successfully handled by each receiver",
		}, []string{"component"}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "propagation_failures_total",
			Help:      "Receivers that failed while handling an envelope",
		}, []string{"component", "reason"}), // reason: panic, transient, invalid, fatal

		reconfigurations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "reconfigurations_total",
			Help:      "Graph reconfigurations by outcome",
		}, []string{"status"}),

		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "validation_errors_total",
			Help:      "Graph validation issues by kind",
		}, []string{"kind"}),

		propagationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "propagation_duration_seconds",
			Help:      "Time to drive one envelope through the graph",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		activeComponents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "engine",
			Name:      "active_components",
			Help:      "Components in the active graph",
		}),
	}

	if err := registry.RegisterCounterVec("engine", "propagations", m.propagations); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "deliveries", m.deliveries); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "propagation_failures", m.failures); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "reconfigurations", m.reconfigurations); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "validation_errors", m.validationErrors); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("engine", "propagation_duration", m.propagationDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("engine", "active_components", m.activeComponents); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *managerMetrics) recordPropagation(failures int, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if failures > 0 {
		status = "partial"
	}
	m.propagations.WithLabelValues(status).Inc()
	m.propagationDuration.Observe(seconds)
}

func (m *managerMetrics) recordDelivery(componentID string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(componentID).Inc()
}

func (m *managerMetrics) recordFailure(componentID, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(componentID, reason).Inc()
}

func (m *managerMetrics) recordReconfiguration(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.reconfigurations.WithLabelValues(status).Inc()
}

func (m *managerMetrics) recordValidationIssues(kinds []string) {
	if m == nil {
		return
	}
	for _, k := range kinds {
		m.validationErrors.WithLabelValues(k).Inc()
	}
}

func (m *managerMetrics) setActiveComponents(n int) {
	if m != nil {
		m.activeComponents.Set(float64(n))
	}
}
