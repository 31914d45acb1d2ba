package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains host-level metrics (not specific to any component kind)
type Metrics struct {
	ConfigReloads   *prometheus.CounterVec
	GraphUpdates    *prometheus.CounterVec
	EventsForwarded *prometheus.CounterVec
	NATSConnected   prometheus.Gauge
}

// NewMetrics creates the host metrics. They are registered by NewMetricsRegistry.
func NewMetrics() *Metrics {
	return &Metrics{
		ConfigReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "config",
				Name:      "reloads_total",
				Help:      "Configuration file reloads by outcome",
			},
			[]string{"status"},
		),

		GraphUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "flowstore",
				Name:      "updates_total",
				Help:      "Graph updates received from the flow store by outcome",
			},
			[]string{"status"},
		),

		EventsForwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "events",
				Name:      "forwarded_total",
				Help:      "Engine events forwarded to NATS by outcome",
			},
			[]string{"status"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.ConfigReloads, c.GraphUpdates, c.EventsForwarded, c.NATSConnected}
}

// RecordConfigReload counts a configuration reload
func (c *Metrics) RecordConfigReload(ok bool) {
	if c == nil {
		return
	}
	c.ConfigReloads.WithLabelValues(status(ok)).Inc()
}

// RecordGraphUpdate counts a graph update applied from the flow store
func (c *Metrics) RecordGraphUpdate(ok bool) {
	if c == nil {
		return
	}
	c.GraphUpdates.WithLabelValues(status(ok)).Inc()
}

// RecordEventForwarded counts an event publish attempt
func (c *Metrics) RecordEventForwarded(ok bool) {
	if c == nil {
		return
	}
	c.EventsForwarded.WithLabelValues(status(ok)).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	if c == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
