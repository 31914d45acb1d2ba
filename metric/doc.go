// Package metric provides the Prometheus registry and HTTP endpoint shared by
// the wire engine, its components and the host.
//
// A MetricsRegistry wraps a prometheus.Registry and tracks collectors by
// "service.metric" key so duplicate registrations fail with a classified
// error instead of a panic. Components register through it from their
// newXMetrics constructors; a nil registry disables metrics and every record
// method on the resulting nil struct is a no-op:
//
//	m, err := newFilterMetrics(deps.MetricsRegistry)
//	if err != nil {
//	    return nil, err
//	}
//	m.recordRecords(id, kept, dropped) // safe when m == nil
//
// Several instances of the same component kind share one vector through
// CounterVec and HistogramVec, distinguished by a "component" label.
//
// Server exposes the registry at the configured path (default /metrics) and a
// plain /health endpoint:
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() { _ = server.Start() }()
//	defer server.Stop(ctx)
package metric
