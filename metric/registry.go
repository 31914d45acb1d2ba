package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/wirestreams/errors"
)

// Namespace prefixes every metric the module registers.
const Namespace = "wirestreams"

// MetricsRegistrar defines the interface for registering service-specific metrics
type MetricsRegistrar interface {
	RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error
	RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error
	RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogramVec(serviceName, metricName string, histogramVec *prometheus.HistogramVec) error
	Unregister(serviceName, metricName string) bool
}

// MetricsRegistry manages the registration and lifecycle of metrics
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with core host metrics
// and the Go runtime collectors.
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		registeredMetrics:  make(map[string]prometheus.Collector),
		Metrics:            NewMetrics(),
	}

	registry.prometheusRegistry.MustRegister(registry.Metrics.collectors()...)
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the host-level metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// RegisterCounter registers a counter metric for a service
func (r *MetricsRegistry) RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error {
	return r.register("RegisterCounter", serviceName, metricName, counter)
}

// RegisterGauge registers a gauge metric for a service
func (r *MetricsRegistry) RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error {
	return r.register("RegisterGauge", serviceName, metricName, gauge)
}

// RegisterHistogram registers a histogram metric for a service
func (r *MetricsRegistry) RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error {
	return r.register("RegisterHistogram", serviceName, metricName, histogram)
}

// RegisterCounterVec registers a counter vector metric for a service
func (r *MetricsRegistry) RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error {
	return r.register("RegisterCounterVec", serviceName, metricName, counterVec)
}

// RegisterGaugeVec registers a gauge vector metric for a service
func (r *MetricsRegistry) RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error {
	return r.register("RegisterGaugeVec", serviceName, metricName, gaugeVec)
}

// RegisterHistogramVec registers a histogram vector metric for a service
func (r *MetricsRegistry) RegisterHistogramVec(
	serviceName, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.register("RegisterHistogramVec", serviceName, metricName, histogramVec)
}

// CounterVec returns the counter vector registered under serviceName.metricName,
// creating and registering it on first use. Component metrics use it so that
// several instances of one kind share a vector and differ by label.
func (r *MetricsRegistry) CounterVec(serviceName, metricName string,
	opts prometheus.CounterOpts, labels []string) (*prometheus.CounterVec, error) {
	c, err := r.getOrRegister("CounterVec", serviceName, metricName, func() prometheus.Collector {
		return prometheus.NewCounterVec(opts, labels)
	})
	if err != nil {
		return nil, err
	}
	vec, ok := c.(*prometheus.CounterVec)
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("%s.%s is %T", serviceName, metricName, c),
			"MetricsRegistry", "CounterVec", "collector type check")
	}
	return vec, nil
}

// HistogramVec is the histogram counterpart of CounterVec.
func (r *MetricsRegistry) HistogramVec(serviceName, metricName string,
	opts prometheus.HistogramOpts, labels []string) (*prometheus.HistogramVec, error) {
	c, err := r.getOrRegister("HistogramVec", serviceName, metricName, func() prometheus.Collector {
		return prometheus.NewHistogramVec(opts, labels)
	})
	if err != nil {
		return nil, err
	}
	vec, ok := c.(*prometheus.HistogramVec)
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("%s.%s is %T", serviceName, metricName, c),
			"MetricsRegistry", "HistogramVec", "collector type check")
	}
	return vec, nil
}

// Unregister removes a metric from the registry
func (r *MetricsRegistry) Unregister(serviceName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(serviceName, metricName)

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registeredMetrics, key)
	}

	return success
}

func (r *MetricsRegistry) register(method, serviceName, metricName string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(serviceName, metricName)
	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for service %s", metricName, serviceName),
			"MetricsRegistry", method, "duplicate metric registration")
	}
	if err := r.registerLocked(method, metricName, collector); err != nil {
		return err
	}
	r.registeredMetrics[key] = collector
	return nil
}

func (r *MetricsRegistry) getOrRegister(method, serviceName, metricName string,
	create func() prometheus.Collector) (prometheus.Collector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(serviceName, metricName)
	if existing, ok := r.registeredMetrics[key]; ok {
		return existing, nil
	}
	collector := create()
	if err := r.registerLocked(method, metricName, collector); err != nil {
		return nil, err
	}
	r.registeredMetrics[key] = collector
	return collector, nil
}

func (r *MetricsRegistry) registerLocked(method, metricName string, collector prometheus.Collector) error {
	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "MetricsRegistry", method,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "MetricsRegistry", method, "failed to register with prometheus")
	}
	return nil
}

func metricKey(serviceName, metricName string) string {
	return serviceName + "." + metricName
}
