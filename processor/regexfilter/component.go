package regexfilter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/types"
)

// Kind is the registered component kind.
const Kind = "regex-filter"

// Property names
const (
	PropPattern = "regex.filter"
	PropMode    = "filter.type"
)

const propertySchema = `{
  "type": "object",
  "properties": {
    "regex.filter": {"type": "string"},
    "filter.type": {"type": "integer", "enum": [0, 1]}
  }
}`

// Register adds the regex-filter kind to registry.
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Kind:        Kind,
		Description: "Retains or removes record fields whose names match a regular expression",
		Schema:      propertySchema,
		Factory:     NewProcessor,
	})
}

// Processor applies a Filter to every record it receives and emits the
// results on port 0. Without a pattern it passes records through. A pattern
// that does not compile leaves the processor broken: every record passes
// through unfiltered and is counted as an error.
type Processor struct {
	id      string
	filter  *Filter
	broken  error
	logger  *slog.Logger
	metrics *filterMetrics

	received     int64
	emitted      int64
	errors       int64
	mu           sync.RWMutex
	lastActivity time.Time
}

// NewProcessor is the component.Factory for regex-filter.
func NewProcessor(id string, props types.Properties, deps component.Dependencies) (component.Component, error) {
	logger := deps.GetLoggerWithComponent(id)

	p := &Processor{id: id, logger: logger}

	metrics, err := newFilterMetrics(deps.MetricsRegistry, id)
	if err != nil {
		logger.Error("Failed to initialize regex filter metrics", "error", err)
		metrics = nil // Continue without metrics
	}
	p.metrics = metrics

	pattern := props.String(PropPattern, "")
	if pattern == "" {
		logger.Debug("Regex filter configured as pass-through")
		return p, nil
	}

	mode, err := ParseMode(props.Int(PropMode, int64(Retain)))
	if err != nil {
		return nil, err
	}
	f, err := NewCached(deps.Patterns, pattern, mode)
	if err != nil {
		p.broken = err
		p.metrics.recordError()
		logger.Error("Regex filter pattern rejected, records will pass through unfiltered",
			"pattern", pattern, "error", err)
		return p, nil
	}
	p.filter = f
	logger.Debug("Regex filter configured", "pattern", f.Pattern(), "mode", f.Mode().String())
	return p, nil
}

// Meta returns component metadata
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		ID:          p.id,
		Kind:        Kind,
		Description: "Regex field filter",
	}
}

// InputPorts returns 1
func (p *Processor) InputPorts() int { return 1 }

// OutputPorts returns 1
func (p *Processor) OutputPorts() int { return 1 }

// OnReceive filters each record and emits one output record per input
// record, including records left without fields. A record that cannot be
// filtered is passed on unchanged.
func (p *Processor) OnReceive(_ context.Context, _ int, env record.Envelope) ([]component.Emission, error) {
	if len(env.Records) == 0 {
		return nil, nil
	}
	atomic.AddInt64(&p.received, int64(len(env.Records)))
	p.touch()

	if p.broken != nil {
		atomic.AddInt64(&p.errors, int64(len(env.Records)))
		atomic.AddInt64(&p.emitted, int64(len(env.Records)))
		for range env.Records {
			p.metrics.recordError()
			p.metrics.recordOutcome("unfiltered")
		}
		p.logger.Warn("Records passed through unfiltered", "count", len(env.Records), "error", p.broken)
		return component.Emit(0, env.Records...), nil
	}

	if p.filter == nil {
		p.metrics.recordOutcome("passed")
		atomic.AddInt64(&p.emitted, int64(len(env.Records)))
		return component.Emit(0, env.Records...), nil
	}

	out := make([]*record.Record, 0, len(env.Records))
	for _, rec := range env.Records {
		filtered, err := p.filter.Apply(rec)
		if err != nil {
			atomic.AddInt64(&p.errors, 1)
			p.metrics.recordError()
			p.logger.Warn("Record passed through unfiltered", "error", err)
		}

		switch {
		case filtered.IsEmpty() && !rec.IsEmpty():
			p.metrics.recordOutcome("emptied")
			p.logger.Debug("Filter left record without fields", "fields", rec.Names())
		case filtered == rec:
			p.metrics.recordOutcome("passed")
		default:
			p.metrics.recordOutcome("trimmed")
		}
		out = append(out, filtered)
	}

	atomic.AddInt64(&p.emitted, int64(len(out)))
	return component.Emit(0, out...), nil
}

// DataFlow returns throughput counters
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	last := p.lastActivity
	p.mu.RUnlock()
	return component.FlowMetrics{
		Received:     atomic.LoadInt64(&p.received),
		Emitted:      atomic.LoadInt64(&p.emitted),
		Errors:       atomic.LoadInt64(&p.errors),
		LastActivity: last,
	}
}

func (p *Processor) touch() {
	p.mu.Lock()
	p.lastActivity = time.Now()
	p.mu.Unlock()
}
