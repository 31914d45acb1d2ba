package udp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/wirestreams/metric"
)

// sourceMetrics holds Prometheus metrics for UDP sources.
type sourceMetrics struct {
	componentID  string
	datagrams    *prometheus.CounterVec // By component and status
	bytes        *prometheus.CounterVec
	records      *prometheus.CounterVec
	socketErrors *prometheus.CounterVec
}

func newSourceMetrics(registry *metric.MetricsRegistry, componentID string) (*sourceMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	datagrams, err := registry.CounterVec("udp_source", "datagrams", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "udp",
		Name:      "datagrams_total",
		Help:      "Datagrams read from the socket",
	}, []string{"component", "status"}) // status: accepted, dropped
	if err != nil {
		return nil, err
	}

	bytes, err := registry.CounterVec("udp_source", "bytes_received", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "udp",
		Name:      "bytes_received_total",
		Help:      "Total bytes received from UDP",
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	records, err := registry.CounterVec("udp_source", "records_emitted", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "udp",
		Name:      "records_emitted_total",
		Help:      "Records decoded from datagrams and emitted",
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	socketErrors, err := registry.CounterVec("udp_source", "socket_errors", prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: "udp",
		Name:      "socket_errors_total",
		Help:      "Socket read errors",
	}, []string{"component"})
	if err != nil {
		return nil, err
	}

	return &sourceMetrics{
		componentID:  componentID,
		datagrams:    datagrams,
		bytes:        bytes,
		records:      records,
		socketErrors: socketErrors,
	}, nil
}

func (m *sourceMetrics) recordDatagram(n int, accepted bool) {
	if m == nil {
		return
	}
	status := "accepted"
	if !accepted {
		status = "dropped"
	}
	m.datagrams.WithLabelValues(m.componentID, status).Inc()
	m.bytes.WithLabelValues(m.componentID).Add(float64(n))
}

func (m *sourceMetrics) recordEmitted(n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(m.componentID).Add(float64(n))
}

func (m *sourceMetrics) recordSocketError() {
	if m == nil {
		return
	}
	m.socketErrors.WithLabelValues(m.componentID).Inc()
}
