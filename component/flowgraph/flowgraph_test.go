package flowgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/types"
)

type mockSource struct {
	id      string
	outputs int
}

func (m *mockSource) Meta() component.Metadata { return component.Metadata{ID: m.id, Kind: "source"} }
func (m *mockSource) OutputPorts() int         { return m.outputs }

type mockSink struct {
	id     string
	inputs int
}

func (m *mockSink) Meta() component.Metadata { return component.Metadata{ID: m.id, Kind: "sink"} }
func (m *mockSink) InputPorts() int          { return m.inputs }
func (m *mockSink) OnReceive(context.Context, int, record.Envelope) ([]component.Emission, error) {
	return nil, nil
}

type mockTransform struct {
	mockSink
}

func (m *mockTransform) Meta() component.Metadata { return component.Metadata{ID: m.id, Kind: "transform"} }
func (m *mockTransform) OutputPorts() int         { return 1 }

func source(id string) component.Component    { return &mockSource{id: id, outputs: 1} }
func sink(id string) component.Component      { return &mockSink{id: id, inputs: 1} }
func transform(id string) component.Component { return &mockTransform{mockSink{id: id, inputs: 1}} }

func wire(from string, fromPort int, to string, toPort int) types.WireSpec {
	return types.WireSpec{FromID: from, FromPort: fromPort, ToID: to, ToPort: toPort}
}

func kinds(issues []errors.ValidationIssue) []errors.IssueKind {
	out := make([]errors.IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestFlowGraphConstruction(t *testing.T) {
	t.Run("create empty FlowGraph", func(t *testing.T) {
		graph := NewFlowGraph()
		assert.Empty(t, graph.GetNodes())
		assert.Empty(t, graph.GetEdges())
		assert.Empty(t, graph.Validate())
	})

	t.Run("add component node records capabilities", func(t *testing.T) {
		graph := NewFlowGraph()
		require.NoError(t, graph.AddComponentNode("f", transform("f")))

		node, ok := graph.Node("f")
		require.True(t, ok)
		assert.True(t, node.Emitter)
		assert.True(t, node.Receiver)
		assert.Equal(t, 1, node.InputPorts)
		assert.Equal(t, 1, node.OutputPorts)
	})

	t.Run("add duplicate component node returns error", func(t *testing.T) {
		graph := NewFlowGraph()
		require.NoError(t, graph.AddComponentNode("a", source("a")))
		err := graph.AddComponentNode("a", source("a"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("rejects empty name and nil component", func(t *testing.T) {
		graph := NewFlowGraph()
		assert.Error(t, graph.AddComponentNode("", source("x")))
		assert.Error(t, graph.AddComponentNode("x", nil))
	})
}

func TestValidate(t *testing.T) {
	comps := []component.Component{
		source("src"), source("src2"), transform("f"), transform("g"), sink("sink"),
	}

	tests := []struct {
		name  string
		wires []types.WireSpec
		want  []errors.IssueKind
	}{
		{
			name:  "linear chain",
			wires: []types.WireSpec{wire("src", 0, "f", 0), wire("f", 0, "sink", 0)},
		},
		{
			name:  "fan-out is allowed",
			wires: []types.WireSpec{wire("src", 0, "f", 0), wire("src", 0, "g", 0)},
		},
		{
			name:  "dangling source",
			wires: []types.WireSpec{wire("ghost", 0, "sink", 0)},
			want:  []errors.IssueKind{errors.IssueDanglingWire},
		},
		{
			name:  "dangling both ends",
			wires: []types.WireSpec{wire("ghost", 0, "phantom", 0)},
			want:  []errors.IssueKind{errors.IssueDanglingWire, errors.IssueDanglingWire},
		},
		{
			name:  "sink cannot emit",
			wires: []types.WireSpec{wire("sink", 0, "f", 0)},
			want:  []errors.IssueKind{errors.IssueCapability},
		},
		{
			name:  "source cannot receive",
			wires: []types.WireSpec{wire("f", 0, "src", 0)},
			want:  []errors.IssueKind{errors.IssueCapability},
		},
		{
			name:  "output port out of range",
			wires: []types.WireSpec{wire("src", 1, "sink", 0)},
			want:  []errors.IssueKind{errors.IssuePortRange},
		},
		{
			name:  "input port out of range",
			wires: []types.WireSpec{wire("src", 0, "sink", 3)},
			want:  []errors.IssueKind{errors.IssuePortRange},
		},
		{
			name:  "fan-in on one port",
			wires: []types.WireSpec{wire("src", 0, "sink", 0), wire("src2", 0, "sink", 0)},
			want:  []errors.IssueKind{errors.IssueFanIn},
		},
		{
			name:  "self loop",
			wires: []types.WireSpec{wire("f", 0, "f", 0)},
			want:  []errors.IssueKind{errors.IssueCycle},
		},
		{
			name:  "two-node cycle",
			wires: []types.WireSpec{wire("f", 0, "g", 0), wire("g", 0, "f", 0)},
			want:  []errors.IssueKind{errors.IssueCycle},
		},
		{
			name: "every issue is reported",
			wires: []types.WireSpec{
				wire("ghost", 0, "sink", 0),
				wire("src", 2, "f", 0),
				wire("f", 0, "g", 0),
				wire("g", 0, "f", 0),
			},
			want: []errors.IssueKind{errors.IssueDanglingWire, errors.IssuePortRange, errors.IssueCycle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := FromComponents(comps, tt.wires)
			require.NoError(t, err)

			issues := graph.Validate()
			if tt.want == nil {
				assert.Empty(t, issues)
				return
			}
			assert.Equal(t, tt.want, kinds(issues))
		})
	}
}

func TestValidate_CyclePath(t *testing.T) {
	graph, err := FromComponents(
		[]component.Component{source("src"), transform("a"), transform("b"), transform("c")},
		[]types.WireSpec{wire("src", 0, "a", 0), wire("a", 0, "b", 0), wire("b", 0, "c", 0), wire("c", 0, "a", 0)},
	)
	require.NoError(t, err)

	issues := graph.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "cycle a -> b -> c -> a", issues[0].Message)
}

func TestValidate_FanInNamesPriorWire(t *testing.T) {
	graph, err := FromComponents(
		[]component.Component{source("a"), source("b"), sink("s")},
		[]types.WireSpec{wire("a", 0, "s", 0), wire("b", 0, "s", 0)},
	)
	require.NoError(t, err)

	issues := graph.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "b:0->s:0", issues[0].Wire)
	assert.Contains(t, issues[0].Message, "a:0")
}

func TestDownstream(t *testing.T) {
	graph, err := FromComponents(
		[]component.Component{source("src"), sink("x"), sink("y"), sink("z")},
		[]types.WireSpec{wire("src", 0, "y", 0), wire("src", 0, "x", 0), wire("src", 0, "z", 0)},
	)
	require.NoError(t, err)

	var order []string
	for _, e := range graph.Downstream("src", 0) {
		order = append(order, e.To.ComponentName)
	}
	assert.Equal(t, []string{"y", "x", "z"}, order, "declaration order")
	assert.Empty(t, graph.Downstream("src", 1))
	assert.Empty(t, graph.Downstream("x", 0))
}

func TestAnalyzeConnectivity(t *testing.T) {
	t.Run("healthy chain", func(t *testing.T) {
		graph, err := FromComponents(
			[]component.Component{source("src"), transform("f"), sink("sink")},
			[]types.WireSpec{wire("src", 0, "f", 0), wire("f", 0, "sink", 0)},
		)
		require.NoError(t, err)

		result := graph.AnalyzeConnectivity()
		assert.Equal(t, "healthy", result.ValidationStatus)
		assert.Equal(t, [][]string{{"src", "f", "sink"}}, result.ConnectedComponents)
		assert.Empty(t, result.DisconnectedNodes)
		assert.Empty(t, result.OrphanedPorts)
		assert.Len(t, result.ConnectedEdges, 2)
	})

	t.Run("islands and unwired ports", func(t *testing.T) {
		graph, err := FromComponents(
			[]component.Component{source("src"), transform("f"), sink("lonely")},
			[]types.WireSpec{wire("src", 0, "f", 0)},
		)
		require.NoError(t, err)

		result := graph.AnalyzeConnectivity()
		assert.Equal(t, "warnings", result.ValidationStatus)
		assert.Equal(t, [][]string{{"src", "f"}, {"lonely"}}, result.ConnectedComponents)

		require.Len(t, result.DisconnectedNodes, 1)
		assert.Equal(t, "lonely", result.DisconnectedNodes[0].ComponentName)

		assert.Equal(t, []OrphanedPort{
			{ComponentName: "f", Port: 0, Direction: DirectionOutput, Issue: "no_subscribers"},
			{ComponentName: "lonely", Port: 0, Direction: DirectionInput, Issue: "no_publishers"},
		}, result.OrphanedPorts)
	})
}
