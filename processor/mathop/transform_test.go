package mathop

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
	"github.com/c360/wirestreams/types"
)

func newTestTransform(t *testing.T, props types.Properties, deps component.Dependencies) *Transform {
	t.Helper()
	c, err := NewTransform("m1", props, deps)
	require.NoError(t, err)
	return c.(*Transform)
}

func reading(temp float64) *record.Record {
	return record.New(
		record.F("sensor", typed.String("s1")),
		record.F("temperature", typed.Double(temp)),
	)
}

func results(t *testing.T, emissions []component.Emission, field string) []float64 {
	t.Helper()
	var out []float64
	for _, em := range emissions {
		for _, rec := range em.Records {
			v, ok := rec.Get(field)
			require.True(t, ok)
			d, err := typed.As[float64](v)
			require.NoError(t, err)
			out = append(out, d)
		}
	}
	return out
}

func TestConfigDefaults(t *testing.T) {
	cfg := ConfigFrom(types.Properties{})
	assert.Equal(t, Config{
		Parameter:  DefaultParameter,
		Result:     DefaultResult,
		Function:   DefaultFunction,
		WindowSize: DefaultWindowSize,
	}, cfg)
}

func TestTransformResultOnly(t *testing.T) {
	tr := newTestTransform(t, types.Properties{
		PropParameter:  types.StringProperty("temperature"),
		PropResult:     types.StringProperty("avg"),
		PropWindowSize: types.IntProperty(3),
	}, component.Dependencies{})
	ctx := context.Background()

	emissions, err := tr.OnReceive(ctx, 0, record.NewEnvelope("src", reading(1), reading(2)))
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	assert.Equal(t, []string{"avg"}, emissions[0].Records[0].Names())
	assert.Equal(t, []float64{1, 1.5}, results(t, emissions, "avg"))

	// the window carries across envelopes
	emissions, err = tr.OnReceive(ctx, 0, record.NewEnvelope("src", reading(3), reading(4)))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, results(t, emissions, "avg"))
}

func TestTransformEmitReceived(t *testing.T) {
	tr := newTestTransform(t, types.Properties{
		PropParameter:    types.StringProperty("temperature"),
		PropResult:       types.StringProperty("temperature"),
		PropEmitReceived: types.BoolProperty(true),
		PropFunction:     types.StringProperty("negate"),
	}, component.Dependencies{})

	in := reading(5)
	emissions, err := tr.OnReceive(context.Background(), 0, record.NewEnvelope("src", in))
	require.NoError(t, err)

	out := emissions[0].Records[0]
	assert.Equal(t, []string{"sensor", "temperature"}, out.Names(), "existing field overwritten in place")
	assert.Equal(t, []float64{-5}, results(t, emissions, "temperature"))

	v, _ := in.Get("temperature")
	assert.True(t, v.Equal(typed.Double(5)), "input record untouched")
}

func TestTransformSkipsBadOperands(t *testing.T) {
	var buf bytes.Buffer
	deps := component.Dependencies{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	tr := newTestTransform(t, types.Properties{
		PropParameter: types.StringProperty("v"),
		PropFunction:  types.StringProperty("max"),
	}, deps)

	emissions, err := tr.OnReceive(context.Background(), 0, record.NewEnvelope("src",
		record.New(record.F("v", typed.Int(7))),
		record.New(record.F("other", typed.Int(100))),
		record.New(record.F("v", typed.String("hot"))),
		record.New(record.F("v", typed.Short(3))),
	))
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7}, results(t, emissions, "result"))

	logs := buf.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "Operand missing")
	assert.Contains(t, logs, "Operand is not numeric")

	flow := tr.DataFlow()
	assert.Equal(t, int64(4), flow.Received)
	assert.Equal(t, int64(2), flow.Emitted)
	assert.Equal(t, int64(2), flow.Errors)

	emissions, err = tr.OnReceive(context.Background(), 0, record.NewEnvelope("src",
		record.New(record.F("other", typed.Int(1)))))
	require.NoError(t, err)
	assert.Empty(t, emissions)
}

func TestTransformRegistration(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))

	c, err := reg.Create(types.ComponentSpec{ID: "m", Kind: Kind}, component.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "average", c.(*Transform).Config().Function)

	_, err = reg.Create(types.ComponentSpec{
		ID: "m", Kind: Kind, Properties: types.Properties{PropFunction: types.StringProperty("cube")},
	}, component.Dependencies{})
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(errors.IssueFactoryFailed))
}
