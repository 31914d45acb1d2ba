package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/metric"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "wirestreams.events"

// Publisher is the subset of natsclient.Client the forwarder needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSForwarder publishes bus events as JSON on "<subject>.<type>".
type NATSForwarder struct {
	publisher Publisher
	subject   string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metric.Metrics
}

// NewNATSForwarder creates a forwarder. metrics may be nil.
func NewNATSForwarder(publisher Publisher, subject string, logger *slog.Logger, metrics *metric.Metrics) (*NATSForwarder, error) {
	if publisher == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "NATSForwarder", "New", "publisher validation")
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSForwarder{
		publisher: publisher,
		subject:   subject,
		timeout:   2 * time.Second,
		logger:    logger.With("forwarder", subject),
		metrics:   metrics,
	}, nil
}

// Attach subscribes the forwarder to bus and returns the unsubscribe function.
func (f *NATSForwarder) Attach(bus *Bus) func() {
	return bus.Subscribe(f.Forward)
}

// Subject returns the subject an event of type t is published on.
func (f *NATSForwarder) Subject(t Type) string {
	return f.subject + "." + string(t)
}

// Forward publishes one event. Failures are logged and counted; the bus
// never sees them.
func (f *NATSForwarder) Forward(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		f.logger.Error("Failed to encode event", "event", e, "error", err)
		f.metrics.RecordEventForwarded(false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := f.publisher.Publish(ctx, f.Subject(e.Type), data); err != nil {
		f.logger.Warn("Failed to forward event", "event", e, "error", err)
		f.metrics.RecordEventForwarded(false)
		return
	}
	f.metrics.RecordEventForwarded(true)
}
