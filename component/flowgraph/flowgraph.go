// Package flowgraph provides flow graph analysis and validation for component connections.
package flowgraph

import (
	"fmt"
	"strings"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/types"
)

// FlowGraph represents a directed graph of component connections
type FlowGraph struct {
	nodes  map[string]*ComponentNode // componentName -> node
	order  []string                  // node insertion order
	edges  []FlowEdge                // wires in declaration order
	routes map[ComponentPortRef][]FlowEdge
}

// ComponentNode represents a component in the flow graph
type ComponentNode struct {
	ComponentName string
	Component     component.Component
	InputPorts    int // zero unless the component is a Receiver
	OutputPorts   int // zero unless the component is an Emitter
	Emitter       bool
	Receiver      bool
}

// FlowEdge represents a wire between two component ports
type FlowEdge struct {
	From ComponentPortRef `json:"from"`
	To   ComponentPortRef `json:"to"`
}

// ComponentPortRef references a specific port on a component
type ComponentPortRef struct {
	ComponentName string `json:"component_name"`
	Port          int    `json:"port"`
}

// String renders the reference as "name:port".
func (r ComponentPortRef) String() string {
	return fmt.Sprintf("%s:%d", r.ComponentName, r.Port)
}

// Direction says which side of a component a port is on
type Direction string

const (
	// DirectionInput is a receiver port
	DirectionInput Direction = "input"
	// DirectionOutput is an emitter port
	DirectionOutput Direction = "output"
)

// FlowAnalysisResult contains the results of connectivity analysis
type FlowAnalysisResult struct {
	ConnectedComponents [][]string         `json:"connected_components"`
	ConnectedEdges      []FlowEdge         `json:"connected_edges"`
	DisconnectedNodes   []DisconnectedNode `json:"disconnected_nodes"`
	OrphanedPorts       []OrphanedPort     `json:"orphaned_ports"`
	ValidationStatus    string             `json:"validation_status"`
}

// DisconnectedNode represents a component with no connections
type DisconnectedNode struct {
	ComponentName string   `json:"component_name"`
	Issue         string   `json:"issue"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// OrphanedPort represents a port with no wire
type OrphanedPort struct {
	ComponentName string    `json:"component_name"`
	Port          int       `json:"port"`
	Direction     Direction `json:"direction"`
	Issue         string    `json:"issue"`
}

// NewFlowGraph creates a new empty FlowGraph
func NewFlowGraph() *FlowGraph {
	return &FlowGraph{
		nodes:  make(map[string]*ComponentNode),
		edges:  make([]FlowEdge, 0),
		routes: make(map[ComponentPortRef][]FlowEdge),
	}
}

// FromComponents builds a graph from instantiated components and wire specs.
// Components are added in the order given; wires are added unvalidated.
func FromComponents(comps []component.Component, wires []types.WireSpec) (*FlowGraph, error) {
	g := NewFlowGraph()
	for _, c := range comps {
		if err := g.AddComponentNode(c.Meta().ID, c); err != nil {
			return nil, err
		}
	}
	for _, w := range wires {
		g.AddWire(w)
	}
	return g, nil
}

// GetNodes returns copies of the component nodes
func (g *FlowGraph) GetNodes() map[string]*ComponentNode {
	result := make(map[string]*ComponentNode, len(g.nodes))
	for k, v := range g.nodes {
		nodeCopy := *v
		result[k] = &nodeCopy
	}
	return result
}

// GetEdges returns the edges in declaration order
func (g *FlowGraph) GetEdges() []FlowEdge {
	result := make([]FlowEdge, len(g.edges))
	copy(result, g.edges)
	return result
}

// AddComponentNode adds a component as a node in the graph
func (g *FlowGraph) AddComponentNode(name string, comp component.Component) error {
	if name == "" {
		return fmt.Errorf("component name cannot be empty")
	}
	if comp == nil {
		return fmt.Errorf("component cannot be nil")
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("component %s already exists in graph", name)
	}

	node := &ComponentNode{ComponentName: name, Component: comp}
	if e, ok := component.IsEmitter(comp); ok {
		node.Emitter = true
		node.OutputPorts = e.OutputPorts()
	}
	if r, ok := component.IsReceiver(comp); ok {
		node.Receiver = true
		node.InputPorts = r.InputPorts()
	}

	g.nodes[name] = node
	g.order = append(g.order, name)
	return nil
}

// AddWire records a wire. Nothing is checked until Validate.
func (g *FlowGraph) AddWire(w types.WireSpec) {
	edge := FlowEdge{
		From: ComponentPortRef{ComponentName: w.FromID, Port: w.FromPort},
		To:   ComponentPortRef{ComponentName: w.ToID, Port: w.ToPort},
	}
	g.edges = append(g.edges, edge)
	g.routes[edge.From] = append(g.routes[edge.From], edge)
}

// Downstream returns the edges leaving an output port, in declaration order.
func (g *FlowGraph) Downstream(name string, port int) []FlowEdge {
	return g.routes[ComponentPortRef{ComponentName: name, Port: port}]
}

// Node returns the node for name
func (g *FlowGraph) Node(name string) (*ComponentNode, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Validate checks every wire and the graph shape and returns all issues found,
// in wire declaration order, followed by any cycles.
//
// A wire is valid when both endpoints exist, the source is an Emitter and the
// target a Receiver with the ports in range, and no earlier wire already
// feeds the same receiver port. The graph must be acyclic; a wire from a
// component to itself is a cycle.
func (g *FlowGraph) Validate() []errors.ValidationIssue {
	var issues []errors.ValidationIssue
	fed := make(map[ComponentPortRef]FlowEdge)
	valid := make([]FlowEdge, 0, len(g.edges))

	for _, edge := range g.edges {
		wire := edge.String()
		edgeIssues := g.checkEdge(edge, wire)
		if len(edgeIssues) == 0 {
			if prior, taken := fed[edge.To]; taken {
				edgeIssues = append(edgeIssues, errors.ValidationIssue{
					Kind:      errors.IssueFanIn,
					Component: edge.To.ComponentName,
					Wire:      wire,
					Message:   fmt.Sprintf("input port %s is already fed by %s", edge.To, prior.From),
				})
			}
		}
		if len(edgeIssues) > 0 {
			issues = append(issues, edgeIssues...)
			continue
		}
		fed[edge.To] = edge
		valid = append(valid, edge)
	}

	return append(issues, g.findCycles(valid)...)
}

func (g *FlowGraph) checkEdge(edge FlowEdge, wire string) []errors.ValidationIssue {
	var issues []errors.ValidationIssue
	issue := func(kind errors.IssueKind, comp, format string, args ...any) {
		issues = append(issues, errors.ValidationIssue{
			Kind: kind, Component: comp, Wire: wire, Message: fmt.Sprintf(format, args...),
		})
	}

	from, fromOK := g.nodes[edge.From.ComponentName]
	to, toOK := g.nodes[edge.To.ComponentName]
	if !fromOK {
		issue(errors.IssueDanglingWire, edge.From.ComponentName, "source component %q does not exist", edge.From.ComponentName)
	}
	if !toOK {
		issue(errors.IssueDanglingWire, edge.To.ComponentName, "target component %q does not exist", edge.To.ComponentName)
	}

	if fromOK {
		switch {
		case !from.Emitter:
			issue(errors.IssueCapability, from.ComponentName, "component %q is not an emitter", from.ComponentName)
		case edge.From.Port < 0 || edge.From.Port >= from.OutputPorts:
			issue(errors.IssuePortRange, from.ComponentName,
				"output port %d out of range [0,%d)", edge.From.Port, from.OutputPorts)
		}
	}
	if toOK {
		switch {
		case !to.Receiver:
			issue(errors.IssueCapability, to.ComponentName, "component %q is not a receiver", to.ComponentName)
		case edge.To.Port < 0 || edge.To.Port >= to.InputPorts:
			issue(errors.IssuePortRange, to.ComponentName,
				"input port %d out of range [0,%d)", edge.To.Port, to.InputPorts)
		}
	}
	return issues
}

// findCycles runs a three-colour DFS over the given edges and reports one
// issue per back edge, with the cycle path.
func (g *FlowGraph) findCycles(edges []FlowEdge) []errors.ValidationIssue {
	const (
		white = iota
		grey
		black
	)

	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.From.ComponentName] = append(adj[e.From.ComponentName], e.To.ComponentName)
	}

	color := make(map[string]int, len(g.nodes))
	var stack []string
	var issues []errors.ValidationIssue

	var visit func(n string)
	visit = func(n string) {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range adj[n] {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				path := append(append([]string{}, stack[start:]...), next)
				issues = append(issues, errors.ValidationIssue{
					Kind:      errors.IssueCycle,
					Component: next,
					Message:   "cycle " + strings.Join(path, " -> "),
				})
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			visit(name)
		}
	}
	return issues
}

// String renders an edge as "from:port->to:port".
func (e FlowEdge) String() string {
	return e.From.String() + "->" + e.To.String()
}

// AnalyzeConnectivity performs graph connectivity analysis
func (g *FlowGraph) AnalyzeConnectivity() *FlowAnalysisResult {
	result := &FlowAnalysisResult{
		ConnectedEdges:      g.GetEdges(),
		ValidationStatus:    "healthy",
		DisconnectedNodes:   []DisconnectedNode{},
		ConnectedComponents: g.findConnectedComponents(),
		OrphanedPorts:       g.findOrphanedPorts(),
	}

	connected := make(map[string]bool)
	for _, edge := range g.edges {
		connected[edge.From.ComponentName] = true
		connected[edge.To.ComponentName] = true
	}
	for _, name := range g.order {
		if !connected[name] {
			result.DisconnectedNodes = append(result.DisconnectedNodes, DisconnectedNode{
				ComponentName: name,
				Issue:         "Component has no connections",
				Suggestions:   []string{"Wire it to another component", "Remove it from the graph"},
			})
		}
	}

	if len(result.DisconnectedNodes) > 0 || len(result.OrphanedPorts) > 0 {
		result.ValidationStatus = "warnings"
	}
	return result
}

// findConnectedComponents uses DFS to find connected components in the graph
func (g *FlowGraph) findConnectedComponents() [][]string {
	visited := make(map[string]bool)
	components := [][]string{}

	// treat wires as undirected for connectivity
	adj := make(map[string][]string)
	for _, edge := range g.edges {
		from, to := edge.From.ComponentName, edge.To.ComponentName
		if _, ok := g.nodes[from]; !ok {
			continue
		}
		if _, ok := g.nodes[to]; !ok {
			continue
		}
		adj[from] = append(adj[from], to)
		adj[to] = append(adj[to], from)
	}

	for _, name := range g.order {
		if !visited[name] {
			var cluster []string
			g.dfs(name, adj, visited, &cluster)
			components = append(components, cluster)
		}
	}
	return components
}

// dfs performs depth-first search for connected components
func (g *FlowGraph) dfs(node string, adj map[string][]string, visited map[string]bool, cluster *[]string) {
	visited[node] = true
	*cluster = append(*cluster, node)

	for _, neighbor := range adj[node] {
		if !visited[neighbor] {
			g.dfs(neighbor, adj, visited, cluster)
		}
	}
}

// findOrphanedPorts identifies ports with no wire
func (g *FlowGraph) findOrphanedPorts() []OrphanedPort {
	orphaned := []OrphanedPort{}

	type portKey struct {
		ref ComponentPortRef
		dir Direction
	}
	wired := make(map[portKey]bool)
	for _, edge := range g.edges {
		wired[portKey{edge.From, DirectionOutput}] = true
		wired[portKey{edge.To, DirectionInput}] = true
	}
	isWired := func(name string, port int, dir Direction) bool {
		return wired[portKey{ComponentPortRef{ComponentName: name, Port: port}, dir}]
	}

	for _, name := range g.order {
		node := g.nodes[name]
		for p := 0; p < node.InputPorts; p++ {
			if !isWired(name, p, DirectionInput) {
				orphaned = append(orphaned, OrphanedPort{
					ComponentName: name, Port: p, Direction: DirectionInput, Issue: "no_publishers",
				})
			}
		}
		for p := 0; p < node.OutputPorts; p++ {
			if !isWired(name, p, DirectionOutput) {
				orphaned = append(orphaned, OrphanedPort{
					ComponentName: name, Port: p, Direction: DirectionOutput, Issue: "no_subscribers",
				})
			}
		}
	}
	return orphaned
}
