package engine

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/component/flowgraph"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/types"
)

// Graph is one validated generation of the wire graph: its description, the
// component instances built from it, and the routing table. A Graph is never
// modified after build; reconfiguration builds a new one.
type Graph struct {
	spec  types.GraphSpec
	order []string
	comps map[string]component.Component
	flow  *flowgraph.FlowGraph
}

// Spec returns a copy of the description the graph was built from.
func (g *Graph) Spec() types.GraphSpec {
	if g == nil {
		return types.GraphSpec{}
	}
	return g.spec.Clone()
}

// Component returns the instance with the given id.
func (g *Graph) Component(id string) (component.Component, bool) {
	if g == nil {
		return nil, false
	}
	c, ok := g.comps[id]
	return c, ok
}

// ComponentIDs returns the component ids in declaration order.
func (g *Graph) ComponentIDs() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.order...)
}

// Analyze reports connectivity: islands, disconnected nodes and unwired ports.
func (g *Graph) Analyze() *flowgraph.FlowAnalysisResult {
	return g.flow.AnalyzeConnectivity()
}

// components returns the instances in declaration order.
func (g *Graph) components() []component.Component {
	if g == nil {
		return nil
	}
	comps := make([]component.Component, 0, len(g.order))
	for _, id := range g.order {
		comps = append(comps, g.comps[id])
	}
	return comps
}

// Release deactivates every component in the graph. Use it for graphs
// obtained from Build that will never be activated.
func (g *Graph) Release(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return deactivateAll(ctx, g.components())
}

// build instantiates and validates spec. Components of prev whose spec is
// unchanged are reused instead of created, so their state survives. On
// failure every newly created component is deactivated and a ValidationError
// lists all issues. fresh holds the components created by this call.
func (m *Manager) build(ctx context.Context, spec types.GraphSpec, prev *Graph) (g *Graph, fresh []component.Component, err error) {
	spec = spec.Clone()
	var issues []errors.ValidationIssue

	var structural *errors.ValidationError
	if err := spec.Validate(); err != nil {
		if !stderrors.As(err, &structural) {
			return nil, nil, err
		}
		issues = append(issues, structural.Issues...)
	}
	reported := make(map[string]bool, len(issues))
	for _, issue := range issues {
		reported[string(issue.Kind)+issue.Wire] = true
	}

	g = &Graph{spec: spec, comps: make(map[string]component.Component, len(spec.Components))}
	failed := make(map[string]bool)

	for _, cs := range spec.Components {
		if cs.ID == "" {
			continue
		}
		if _, dup := g.comps[cs.ID]; dup || failed[cs.ID] {
			continue
		}

		if prev != nil {
			if old, ok := prev.spec.Component(cs.ID); ok && old.Equal(cs) {
				g.comps[cs.ID] = prev.comps[cs.ID]
				g.order = append(g.order, cs.ID)
				continue
			}
		}

		c, err := m.registry.Create(cs, m.deps)
		if err != nil {
			failed[cs.ID] = true
			var verr *errors.ValidationError
			if stderrors.As(err, &verr) {
				issues = append(issues, verr.Issues...)
			} else {
				issues = append(issues, errors.ValidationIssue{
					Kind: errors.IssueFactoryFailed, Component: cs.ID, Message: err.Error(),
				})
			}
			continue
		}
		if c.Meta().ID != cs.ID {
			failed[cs.ID] = true
			fresh = append(fresh, c)
			issues = append(issues, errors.ValidationIssue{
				Kind:      errors.IssueFactoryFailed,
				Component: cs.ID,
				Message:   fmt.Sprintf("factory returned component with id %q", c.Meta().ID),
			})
			continue
		}
		g.comps[cs.ID] = c
		g.order = append(g.order, cs.ID)
		fresh = append(fresh, c)
	}

	flow, err := flowgraph.FromComponents(g.components(), spec.Wires)
	if err != nil {
		// ids are unique by construction
		_ = deactivateAll(ctx, fresh)
		return nil, nil, errors.WrapFatal(err, "Manager", "build", "assemble flow graph")
	}
	g.flow = flow

	for _, issue := range flow.Validate() {
		// a wire to a component that failed to build is already reported
		if issue.Kind == errors.IssueDanglingWire && failed[issue.Component] {
			continue
		}
		if issue.Wire != "" && reported[string(issue.Kind)+issue.Wire] {
			continue
		}
		issues = append(issues, issue)
	}

	if len(issues) > 0 {
		kinds := make([]string, len(issues))
		for i, issue := range issues {
			kinds[i] = string(issue.Kind)
		}
		m.metrics.recordValidationIssues(kinds)

		if err := deactivateAll(ctx, fresh); err != nil {
			m.logger.Warn("Failed to release components of rejected graph", "error", err)
		}
		return nil, nil, &errors.ValidationError{Issues: issues}
	}
	return g, fresh, nil
}

// deactivateAll calls Deactivate on every component that implements it,
// recovering panics, and joins the errors.
func deactivateAll(ctx context.Context, comps []component.Component) error {
	var errs []error
	for _, c := range comps {
		if err := deactivate(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func deactivate(ctx context.Context, c component.Component) (err error) {
	d, ok := c.(component.Deactivator)
	if !ok {
		return nil
	}
	id := c.Meta().ID
	defer func() {
		if r := recover(); r != nil {
			err = errors.WrapFatal(fmt.Errorf("panic: %v", r), "Manager", "deactivate", "deactivate "+id)
		}
	}()
	if err := d.Deactivate(ctx); err != nil {
		return errors.Wrap(err, "Manager", "deactivate", "deactivate "+id)
	}
	return nil
}
