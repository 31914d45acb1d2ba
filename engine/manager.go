package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/component/flowgraph"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/events"
	"github.com/c360/wirestreams/pkg/regexcache"
	"github.com/c360/wirestreams/types"
)

// Manager owns one wire graph: it validates and instantiates graph
// descriptions, drives propagation through the active graph, and swaps
// graphs on reconfiguration.
//
// Two locks are involved. lifecycleMu serializes Activate, Reconfigure and
// Teardown. propMu serializes propagations and is held briefly by the
// lifecycle operations to swap the active graph, so a swap never interleaves
// with an in-flight propagation.
type Manager struct {
	registry *component.Registry
	deps     component.Dependencies
	logger   *slog.Logger
	metrics  *managerMetrics
	bus      *events.Bus

	lifecycleMu sync.Mutex
	propMu      sync.Mutex
	state       atomic.Int32
	current     atomic.Pointer[Graph]

	runs map[component.Component]*run // guarded by lifecycleMu
}

// NewManager creates a manager in the Unconfigured state. Components are
// created through registry and receive deps; when deps carries no pattern
// cache the manager creates its own.
func NewManager(registry *component.Registry, deps component.Dependencies) (*Manager, error) {
	if registry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Manager", "NewManager", "registry validation")
	}

	logger := deps.GetLogger().With("component", "wire-manager")

	if deps.Patterns == nil {
		cache, err := regexcache.New(regexcache.DefaultSize)
		if err != nil {
			return nil, err
		}
		deps.Patterns = cache
	}

	metrics, err := newManagerMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize manager metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Manager{
		registry: registry,
		deps:     deps,
		logger:   logger,
		metrics:  metrics,
		bus:      events.NewBus(logger),
		runs:     make(map[component.Component]*run),
	}, nil
}

// Events returns the manager's event bus.
func (m *Manager) Events() *events.Bus {
	return m.bus
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

// Spec returns the description of the active graph, or an empty one.
func (m *Manager) Spec() types.GraphSpec {
	return m.current.Load().Spec()
}

// Component returns a component of the active graph.
func (m *Manager) Component(id string) (component.Component, bool) {
	return m.current.Load().Component(id)
}

// Analyze reports connectivity of the active graph.
func (m *Manager) Analyze() (*flowgraph.FlowAnalysisResult, error) {
	g := m.current.Load()
	if g == nil {
		return nil, m.inactiveError("Analyze")
	}
	return g.Analyze(), nil
}

// DataFlow returns throughput counters of active components that report them.
func (m *Manager) DataFlow() map[string]component.FlowMetrics {
	g := m.current.Load()
	out := make(map[string]component.FlowMetrics)
	if g == nil {
		return out
	}
	for _, id := range g.order {
		if r, ok := g.comps[id].(component.DataFlowReporter); ok {
			out[id] = r.DataFlow()
		}
	}
	return out
}

// Build instantiates and validates spec without touching the active graph.
// The caller owns the result and must Release it.
func (m *Manager) Build(ctx context.Context, spec types.GraphSpec) (*Graph, error) {
	g, _, err := m.build(ctx, spec, nil)
	return g, err
}

// Activate builds spec and makes it the active graph. It is only legal once,
// from Unconfigured; on failure the manager stays Unconfigured.
func (m *Manager) Activate(ctx context.Context, spec types.GraphSpec) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	switch m.State() {
	case StateUnconfigured:
	case StateTornDown:
		return errors.WrapFatal(errors.ErrTornDown, "Manager", "Activate", "state check")
	default:
		return errors.WrapInvalid(errors.ErrAlreadyActive, "Manager", "Activate", "state check")
	}

	m.setState(StateValidating)
	g, _, err := m.build(ctx, spec, nil)
	if err != nil {
		m.setState(StateUnconfigured)
		m.logger.Error("Graph activation rejected", "error", err)
		return err
	}

	m.propMu.Lock()
	m.current.Store(g)
	m.setState(StateActive)
	m.propMu.Unlock()

	m.metrics.setActiveComponents(len(g.order))
	m.publishDiff(nil, g)
	m.bus.Publish(events.New(events.GraphActivated))
	m.startRunners(g.components())
	m.logger.Info("Graph activated", "components", len(g.order), "wires", len(g.spec.Wires))
	return nil
}

// Reconfigure replaces the active graph with one built from spec.
//
// The new graph is built while propagation continues on the old one;
// components whose id, kind and properties are unchanged are carried over
// with their state. The swap then waits for any in-flight propagation.
// Components that left the graph are deactivated after the swap. If spec is
// invalid the old graph stays active and untouched.
func (m *Manager) Reconfigure(ctx context.Context, spec types.GraphSpec) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	switch m.State() {
	case StateActive:
	case StateTornDown:
		return errors.WrapFatal(errors.ErrTornDown, "Manager", "Reconfigure", "state check")
	default:
		return errors.WrapInvalid(errors.ErrNotActive, "Manager", "Reconfigure", "state check")
	}

	m.setState(StateReconfiguring)
	old := m.current.Load()

	g, fresh, err := m.build(ctx, spec, old)
	if err != nil {
		m.setState(StateActive)
		m.metrics.recordReconfiguration(false)
		m.logger.Error("Graph reconfiguration rejected", "error", err)
		return err
	}

	m.propMu.Lock()
	m.current.Store(g)
	m.setState(StateActive)
	m.propMu.Unlock()

	var removed []component.Component
	for _, id := range old.order {
		if c, ok := g.comps[id]; !ok || c != old.comps[id] {
			removed = append(removed, old.comps[id])
		}
	}
	m.stopRunners(ctx, removed)
	if err := deactivateAll(ctx, removed); err != nil {
		m.logger.Warn("Failed to deactivate removed components", "error", err)
	}

	m.metrics.recordReconfiguration(true)
	m.metrics.setActiveComponents(len(g.order))
	m.publishDiff(old, g)
	m.bus.Publish(events.New(events.GraphReconfigured))
	m.startRunners(fresh)
	m.logger.Info("Graph reconfigured",
		"components", len(g.order), "created", len(fresh), "removed", len(removed))
	return nil
}

// Teardown waits for in-flight propagation, deactivates every component and
// leaves the manager TornDown. Further calls are no-ops.
func (m *Manager) Teardown(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.State() == StateTornDown {
		return nil
	}

	m.propMu.Lock()
	m.setState(StateTornDown)
	g := m.current.Swap(nil)
	m.propMu.Unlock()

	m.stopRunners(ctx, g.components())
	err := g.Release(ctx)
	if err != nil {
		m.logger.Warn("Teardown finished with deactivation errors", "error", err)
	}
	if g != nil {
		for i := len(g.order) - 1; i >= 0; i-- {
			m.bus.Publish(events.New(events.ComponentDeleted).WithComponent(g.order[i]))
		}
	}

	m.metrics.setActiveComponents(0)
	m.bus.Publish(events.New(events.GraphTornDown))
	m.logger.Info("Graph torn down")
	return err
}

// publishDiff announces the components and wires that differ between two
// graph generations. Replaced components appear as deleted then created.
func (m *Manager) publishDiff(old, g *Graph) {
	var oldWires map[types.WireSpec]bool
	if old != nil {
		oldWires = make(map[types.WireSpec]bool, len(old.spec.Wires))
		for _, w := range old.spec.Wires {
			oldWires[w] = true
		}
		newWires := make(map[types.WireSpec]bool, len(g.spec.Wires))
		for _, w := range g.spec.Wires {
			newWires[w] = true
		}
		for _, w := range old.spec.Wires {
			if !newWires[w] {
				m.bus.Publish(events.New(events.WireDeleted).WithWire(w.String()))
			}
		}
		for _, id := range old.order {
			if c, ok := g.comps[id]; !ok || c != old.comps[id] {
				m.bus.Publish(events.New(events.ComponentDeleted).WithComponent(id))
			}
		}
	}

	for _, id := range g.order {
		if old != nil && old.comps[id] == g.comps[id] {
			continue
		}
		m.bus.Publish(events.New(events.ComponentCreated).
			WithComponent(id).
			WithAttr("kind", g.comps[id].Meta().Kind))
	}
	for _, w := range g.spec.Wires {
		if !oldWires[w] {
			m.bus.Publish(events.New(events.WireCreated).WithWire(w.String()))
		}
	}
}

func (m *Manager) inactiveError(method string) error {
	if m.State() == StateTornDown {
		return errors.WrapFatal(errors.ErrTornDown, "Manager", method, "state check")
	}
	return errors.WrapInvalid(errors.ErrNotActive, "Manager", method, "state check")
}
