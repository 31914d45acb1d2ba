package mathop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
	"github.com/c360/wirestreams/types"
)

// Kind is the registered component kind.
const Kind = "math-transform"

// Property names and their defaults
const (
	PropParameter    = "parameter.name"
	PropResult       = "result.name"
	PropEmitReceived = "emit.received.properties"
	PropFunction     = "function"
	PropWindowSize   = "window.size"

	DefaultParameter  = "parameter"
	DefaultResult     = "result"
	DefaultFunction   = "average"
	DefaultWindowSize = 10
)

const propertySchema = `{
  "type": "object",
  "properties": {
    "parameter.name": {"type": "string", "minLength": 1},
    "result.name": {"type": "string", "minLength": 1},
    "emit.received.properties": {"type": "boolean"},
    "function": {"type": "string"},
    "window.size": {"type": "integer", "minimum": 1}
  }
}`

// Register adds the math-transform kind to registry.
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Kind:        Kind,
		Description: "Applies a single-operand function to a numeric record field",
		Schema:      propertySchema,
		Factory:     NewTransform,
	})
}

// Config is the decoded property set of a math-transform.
type Config struct {
	Parameter    string
	Result       string
	EmitReceived bool
	Function     string
	WindowSize   int
}

// ConfigFrom reads a Config from properties, applying defaults.
func ConfigFrom(props types.Properties) Config {
	return Config{
		Parameter:    props.String(PropParameter, DefaultParameter),
		Result:       props.String(PropResult, DefaultResult),
		EmitReceived: props.Bool(PropEmitReceived, false),
		Function:     props.String(PropFunction, DefaultFunction),
		WindowSize:   int(props.Int(PropWindowSize, DefaultWindowSize)),
	}
}

// Transform reads one numeric field from each record, applies its function
// and emits the result as a Double field on port 0.
type Transform struct {
	id     string
	cfg    Config
	fn     Func
	logger *slog.Logger

	metrics *transformMetrics

	received     int64
	emitted      int64
	skipped      int64
	mu           sync.RWMutex
	lastActivity time.Time
}

// NewTransform is the component.Factory for math-transform.
func NewTransform(id string, props types.Properties, deps component.Dependencies) (component.Component, error) {
	cfg := ConfigFrom(props)
	fn, err := NewFunc(cfg.Function, cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	logger := deps.GetLoggerWithComponent(id)
	metrics, err := newTransformMetrics(deps.MetricsRegistry, id)
	if err != nil {
		logger.Error("Failed to initialize math transform metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Transform{id: id, cfg: cfg, fn: fn, logger: logger, metrics: metrics}, nil
}

// Meta returns component metadata
func (t *Transform) Meta() component.Metadata {
	return component.Metadata{
		ID:          t.id,
		Kind:        Kind,
		Description: "Math transform (" + t.cfg.Function + ")",
	}
}

// InputPorts returns 1
func (t *Transform) InputPorts() int { return 1 }

// OutputPorts returns 1
func (t *Transform) OutputPorts() int { return 1 }

// Config returns the decoded properties.
func (t *Transform) Config() Config { return t.cfg }

// OnReceive transforms each record in order. A record without a numeric
// operand is logged and skipped; it does not advance a window.
func (t *Transform) OnReceive(_ context.Context, _ int, env record.Envelope) ([]component.Emission, error) {
	start := time.Now()
	atomic.AddInt64(&t.received, int64(len(env.Records)))
	t.mu.Lock()
	t.lastActivity = start
	t.mu.Unlock()

	out := make([]*record.Record, 0, len(env.Records))
	for _, rec := range env.Records {
		v, ok := rec.Get(t.cfg.Parameter)
		if !ok {
			t.skip("Operand missing, record skipped", "parameter", t.cfg.Parameter)
			continue
		}
		x, err := v.Float64()
		if err != nil {
			t.skip("Operand is not numeric, record skipped",
				"parameter", t.cfg.Parameter, "kind", v.Kind().String(), "error", err)
			continue
		}

		result := typed.Double(t.fn(x))
		if t.cfg.EmitReceived {
			out = append(out, rec.With(t.cfg.Result, result))
		} else {
			out = append(out, record.New(record.F(t.cfg.Result, result)))
		}
		t.metrics.recordComputed()
	}
	t.metrics.recordDuration(time.Since(start))

	if len(out) == 0 {
		return nil, nil
	}
	atomic.AddInt64(&t.emitted, int64(len(out)))
	return component.Emit(0, out...), nil
}

func (t *Transform) skip(msg string, attrs ...any) {
	atomic.AddInt64(&t.skipped, 1)
	t.metrics.recordSkipped()
	t.logger.Warn(msg, attrs...)
}

// DataFlow returns throughput counters. Skipped records count as errors.
func (t *Transform) DataFlow() component.FlowMetrics {
	t.mu.RLock()
	last := t.lastActivity
	t.mu.RUnlock()
	return component.FlowMetrics{
		Received:     atomic.LoadInt64(&t.received),
		Emitted:      atomic.LoadInt64(&t.emitted),
		Errors:       atomic.LoadInt64(&t.skipped),
		LastActivity: last,
	}
}
