package logsink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/types"
)

// Kind is the registered component kind.
const Kind = "logger"

// PropVerbosity selects the level records are logged at.
const PropVerbosity = "log.verbosity"

// Verbosity values
const (
	VerbosityInfo  = "info"
	VerbosityDebug = "debug"
)

const propertySchema = `{
  "type": "object",
  "properties": {
    "log.verbosity": {"type": "string", "enum": ["info", "debug"]}
  }
}`

// Register adds the logger kind to registry.
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Kind:        Kind,
		Description: "Logs every received record",
		Schema:      propertySchema,
		Factory:     NewSink,
	})
}

// ParseVerbosity maps a log.verbosity value to a slog level.
func ParseVerbosity(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case VerbosityInfo:
		return slog.LevelInfo, nil
	case VerbosityDebug:
		return slog.LevelDebug, nil
	}
	return 0, errors.WrapInvalid(fmt.Errorf("unknown verbosity %q", s), "logsink", "ParseVerbosity", "verbosity lookup")
}

// Sink logs the records it receives and emits nothing.
type Sink struct {
	id     string
	level  slog.Level
	logger *slog.Logger

	received     int64
	mu           sync.RWMutex
	lastActivity time.Time
}

// NewSink is the component.Factory for logger.
func NewSink(id string, props types.Properties, deps component.Dependencies) (component.Component, error) {
	level, err := ParseVerbosity(props.String(PropVerbosity, VerbosityInfo))
	if err != nil {
		return nil, err
	}
	return &Sink{id: id, level: level, logger: deps.GetLoggerWithComponent(id)}, nil
}

// Meta returns component metadata
func (s *Sink) Meta() component.Metadata {
	return component.Metadata{ID: s.id, Kind: Kind, Description: "Record logger (" + s.level.String() + ")"}
}

// InputPorts returns 1
func (s *Sink) InputPorts() int { return 1 }

// Level returns the level records are logged at.
func (s *Sink) Level() slog.Level { return s.level }

// OnReceive logs one line per record, in envelope order.
func (s *Sink) OnReceive(ctx context.Context, port int, env record.Envelope) ([]component.Emission, error) {
	atomic.AddInt64(&s.received, int64(len(env.Records)))
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if !s.logger.Enabled(ctx, s.level) {
		return nil, nil
	}
	for i, rec := range env.Records {
		s.logger.Log(ctx, s.level, "Received record",
			"emitter", env.EmitterID, "port", port, "index", i, "record", rec)
	}
	return nil, nil
}

// DataFlow returns throughput counters.
func (s *Sink) DataFlow() component.FlowMetrics {
	s.mu.RLock()
	last := s.lastActivity
	s.mu.RUnlock()
	return component.FlowMetrics{Received: atomic.LoadInt64(&s.received), LastActivity: last}
}
