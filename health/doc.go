// Package health tracks the health of the host's parts and serves the
// aggregate over HTTP.
//
// A part is healthy, degraded (working, but something failed recently) or
// unhealthy. The aggregate takes the worst state of its parts:
//
//	monitor := health.NewMonitor()
//	defer monitor.Track(manager.Events())()
//	monitor.Update("nats", health.NewHealthy("nats", "Connected"))
//
//	server.HandleHealth(health.Handler(monitor, "wirestreams"))
//
// Track follows engine events: the graph entry is healthy once a graph is
// active, degraded after a propagation failure until the next
// reconfiguration, and unhealthy after teardown.
//
// Messages of unhealthy statuses are sanitized before they are stored:
// URLs, paths, IP addresses, ports and credential assignments are replaced
// with placeholders.
package health
