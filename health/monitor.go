package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/c360/wirestreams/events"
)

// GraphComponent is the monitor entry Track maintains.
const GraphComponent = "graph"

// Monitor tracks the health of named parts of the host
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update records status under name
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[name] = status
}

// Get retrieves the status recorded under name
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[name]
	return status, ok
}

// Remove stops tracking name
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
}

// AggregateHealth returns the combined status of everything tracked
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	subStatuses := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		subStatuses = append(subStatuses, status)
	}
	m.mu.RUnlock()

	return Aggregate(systemName, subStatuses)
}

// Track keeps the graph entry current from manager events and returns the
// unsubscribe function. A propagation failure degrades the graph until the
// next activation or reconfiguration; teardown makes it unhealthy.
func (m *Monitor) Track(bus *events.Bus) func() {
	m.Update(GraphComponent, NewUnhealthy(GraphComponent, "Graph not active"))
	return bus.Subscribe(func(e events.Event) {
		switch e.Type {
		case events.GraphActivated:
			m.Update(GraphComponent, NewHealthy(GraphComponent, "Graph active"))
		case events.GraphReconfigured:
			m.Update(GraphComponent, NewHealthy(GraphComponent, "Graph reconfigured"))
		case events.GraphTornDown:
			m.Update(GraphComponent, NewUnhealthy(GraphComponent, "Graph torn down"))
		case events.PropagationFailed:
			m.Update(GraphComponent, NewDegraded(GraphComponent,
				fmt.Sprintf("Delivery to %s failed (%s)", e.ComponentID, e.Attributes["reason"])))
		}
	})
}
