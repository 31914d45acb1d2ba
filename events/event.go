// Package events carries engine lifecycle notifications from the wire graph
// manager to whoever subscribes: loggers, tests, or a NATS forwarder.
package events

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened
type Type string

// Event types published by the manager
const (
	GraphActivated    Type = "graph.activated"
	GraphReconfigured Type = "graph.reconfigured"
	GraphTornDown     Type = "graph.torndown"
	WireCreated       Type = "wire.created"
	WireDeleted       Type = "wire.deleted"
	ComponentCreated  Type = "component.created"
	ComponentDeleted  Type = "component.deleted"
	PropagationFailed Type = "propagation.failed"
)

// Event is one notification. Attributes hold type-specific detail such as
// the failure reason or the component kind.
type Event struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	ComponentID string            `json:"component_id,omitempty"`
	Wire        string            `json:"wire,omitempty"`
	Time        time.Time         `json:"time"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// New creates an event with a fresh id and the current time.
func New(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, Time: time.Now().UTC()}
}

// WithComponent sets the component id.
func (e Event) WithComponent(id string) Event {
	e.ComponentID = id
	return e
}

// WithWire sets the wire description.
func (e Event) WithWire(wire string) Event {
	e.Wire = wire
	return e
}

// WithAttr adds one attribute. The receiver's map is not modified.
func (e Event) WithAttr(key, value string) Event {
	attrs := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("id", e.ID), slog.String("type", string(e.Type))}
	if e.ComponentID != "" {
		attrs = append(attrs, slog.String("component", e.ComponentID))
	}
	if e.Wire != "" {
		attrs = append(attrs, slog.String("wire", e.Wire))
	}
	for k, v := range e.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.GroupValue(attrs...)
}
