package regexfilter

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/metric"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
	"github.com/c360/wirestreams/types"
)

func newTestProcessor(t *testing.T, props types.Properties, deps component.Dependencies) *Processor {
	t.Helper()
	c, err := NewProcessor("f1", props, deps)
	require.NoError(t, err)
	return c.(*Processor)
}

func TestProcessorOnReceive(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(t, types.Properties{
		PropPattern: types.StringProperty("^temp.*"),
		PropMode:    types.IntProperty(0),
	}, component.Dependencies{})

	keep := sensorRecord()
	drop := record.New(record.F("humidity", typed.Double(1)))
	whole := record.New(record.F("temp", typed.Double(2)))

	emissions, err := p.OnReceive(ctx, 0, record.NewEnvelope("src", keep, drop, whole))
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	assert.Equal(t, 0, emissions[0].Port)
	require.Len(t, emissions[0].Records, 3)
	assert.Equal(t, []string{"temperature", "temp_max"}, emissions[0].Records[0].Names())
	assert.True(t, emissions[0].Records[1].IsEmpty(), "record left without fields is still emitted")
	assert.Same(t, whole, emissions[0].Records[2])

	emissions, err = p.OnReceive(ctx, 0, record.NewEnvelope("src"))
	require.NoError(t, err)
	assert.Empty(t, emissions, "empty envelope is a no-op")

	flow := p.DataFlow()
	assert.Equal(t, int64(3), flow.Received)
	assert.Equal(t, int64(3), flow.Emitted)
}

func TestProcessorRemoveEverything(t *testing.T) {
	p := newTestProcessor(t, types.Properties{
		PropPattern: types.StringProperty(".*"),
		PropMode:    types.IntProperty(1),
	}, component.Dependencies{})

	rec := record.New(record.F("key", typed.String("val")), record.F("topic", typed.String("t")))
	emissions, err := p.OnReceive(context.Background(), 0, record.NewEnvelope("src", rec))
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	require.Len(t, emissions[0].Records, 1)
	assert.Equal(t, 0, emissions[0].Records[0].Len())
}

func TestProcessorPassThrough(t *testing.T) {
	p := newTestProcessor(t, types.Properties{}, component.Dependencies{})
	rec := sensorRecord()

	emissions, err := p.OnReceive(context.Background(), 0, record.NewEnvelope("src", rec))
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	assert.Same(t, rec, emissions[0].Records[0])
}

func TestProcessorBadPatternPassesThrough(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	p := newTestProcessor(t, types.Properties{
		PropPattern: types.StringProperty("temp["),
	}, component.Dependencies{MetricsRegistry: registry})
	require.Error(t, p.broken)

	rec := sensorRecord()
	emissions, err := p.OnReceive(context.Background(), 0, record.NewEnvelope("src", rec))
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	require.Len(t, emissions[0].Records, 1)
	assert.Same(t, rec, emissions[0].Records[0], "record passes through unfiltered")

	flow := p.DataFlow()
	assert.Equal(t, int64(1), flow.Emitted)
	assert.Equal(t, int64(1), flow.Errors)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.records.WithLabelValues("f1", "unfiltered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.errors.WithLabelValues("f1")), "rejected pattern and the unfiltered record")
}

func TestProcessorBadMode(t *testing.T) {
	_, err := NewProcessor("f1", types.Properties{
		PropPattern: types.StringProperty("a"),
		PropMode:    types.IntProperty(3),
	}, component.Dependencies{})
	assert.Error(t, err)
}

func TestProcessorRegistration(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))

	c, err := reg.Create(types.ComponentSpec{
		ID:         "f2",
		Kind:       Kind,
		Properties: types.Properties{PropPattern: types.StringProperty("x")},
	}, component.Dependencies{})
	require.NoError(t, err)

	_, isEmitter := component.IsEmitter(c)
	_, isReceiver := component.IsReceiver(c)
	assert.True(t, isEmitter)
	assert.True(t, isReceiver)
}

func TestProcessorMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	deps := component.Dependencies{MetricsRegistry: registry}
	props := types.Properties{PropPattern: types.StringProperty("humidity")}

	a := newTestProcessor(t, props, deps)
	b, err := NewProcessor("f2", props, deps)
	require.NoError(t, err, "instances of one kind share metric vectors")
	require.NotNil(t, b.(*Processor).metrics)

	_, err = a.OnReceive(context.Background(), 0, record.NewEnvelope("src",
		sensorRecord(),
		record.New(record.F("other", typed.Int(1))),
		record.New(record.F("humidity", typed.Int(1))),
	))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.records.WithLabelValues("f1", "trimmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.records.WithLabelValues("f1", "emptied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.records.WithLabelValues("f1", "passed")))
}
