// Package types contains shared graph description types used across wirestreams.
package types

import (
	"fmt"

	"github.com/c360/wirestreams/errors"
)

// ComponentSpec describes one component instance in a graph.
// The ID is unique within the graph; Kind selects the registered factory.
type ComponentSpec struct {
	ID         string     `json:"id"                   yaml:"id"`
	Kind       string     `json:"kind"                 yaml:"kind"`
	Properties Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Equal reports whether two specs would produce interchangeable components.
func (c ComponentSpec) Equal(o ComponentSpec) bool {
	return c.ID == o.ID && c.Kind == o.Kind && c.Properties.Equal(o.Properties)
}

// WireSpec connects an emitter output port to a receiver input port.
type WireSpec struct {
	FromID   string `json:"from"      yaml:"from"`
	FromPort int    `json:"from_port" yaml:"from_port"`
	ToID     string `json:"to"        yaml:"to"`
	ToPort   int    `json:"to_port"   yaml:"to_port"`
}

// String renders the wire as "from:port->to:port".
func (w WireSpec) String() string {
	return fmt.Sprintf("%s:%d->%s:%d", w.FromID, w.FromPort, w.ToID, w.ToPort)
}

// GraphSpec is a complete graph description.
type GraphSpec struct {
	Components []ComponentSpec `json:"components" yaml:"components"`
	Wires      []WireSpec      `json:"wires"      yaml:"wires"`
}

// Component returns the spec with the given id.
func (g GraphSpec) Component(id string) (ComponentSpec, bool) {
	for _, c := range g.Components {
		if c.ID == id {
			return c, true
		}
	}
	return ComponentSpec{}, false
}

// Clone returns a deep copy of the graph description.
func (g GraphSpec) Clone() GraphSpec {
	out := GraphSpec{
		Components: make([]ComponentSpec, len(g.Components)),
		Wires:      append([]WireSpec(nil), g.Wires...),
	}
	for i, c := range g.Components {
		props := make(Properties, len(c.Properties))
		for k, v := range c.Properties {
			props[k] = v
		}
		out.Components[i] = ComponentSpec{ID: c.ID, Kind: c.Kind, Properties: props}
	}
	return out
}

// Validate performs the structural checks that need no component instances:
// non-empty ids and kinds, unique ids, and non-negative ports. Wire endpoint and
// capability checks happen when the graph is built.
func (g GraphSpec) Validate() error {
	var issues []errors.ValidationIssue
	seen := make(map[string]bool, len(g.Components))

	for i, c := range g.Components {
		switch {
		case c.ID == "":
			issues = append(issues, errors.ValidationIssue{
				Kind:    errors.IssueInvalidComponent,
				Message: fmt.Sprintf("component #%d has an empty id", i),
			})
			continue
		case c.Kind == "":
			issues = append(issues, errors.ValidationIssue{
				Kind: errors.IssueInvalidComponent, Component: c.ID, Message: "component kind is empty",
			})
		}
		if seen[c.ID] {
			issues = append(issues, errors.ValidationIssue{
				Kind: errors.IssueDuplicateID, Component: c.ID, Message: "component id is declared more than once",
			})
		}
		seen[c.ID] = true
	}

	for _, w := range g.Wires {
		if w.FromPort < 0 || w.ToPort < 0 {
			issues = append(issues, errors.ValidationIssue{
				Kind: errors.IssuePortRange, Wire: w.String(), Message: "port indices must be non-negative",
			})
		}
	}

	if len(issues) > 0 {
		return &errors.ValidationError{Issues: issues}
	}
	return nil
}
