package component

import (
	"context"
	"time"

	"github.com/c360/wirestreams/record"
)

// Metadata describes what a component instance is
type Metadata struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// Component is anything that can be placed in a wire graph.
// A component is useful only when it also implements Emitter, Receiver, or both.
type Component interface {
	Meta() Metadata
}

// Emitter produces envelopes on one or more numbered output ports.
type Emitter interface {
	Component
	OutputPorts() int
}

// Receiver consumes envelopes delivered on numbered input ports.
//
// OnReceive is called synchronously from inside a propagation and never
// concurrently for the same graph. The returned emissions are delivered
// downstream, depth-first, before OnReceive is called for the next sibling.
// Emissions on ports of a component that is not an Emitter are ignored.
type Receiver interface {
	Component
	InputPorts() int
	OnReceive(ctx context.Context, port int, env record.Envelope) ([]Emission, error)
}

// Emission is a batch of records a receiver hands back for one of its output ports.
type Emission struct {
	Port    int
	Records []*record.Record
}

// Emit is shorthand for a single emission.
func Emit(port int, records ...*record.Record) []Emission {
	return []Emission{{Port: port, Records: records}}
}

// Deactivator is implemented by components holding resources that must be
// released when the component leaves the graph.
type Deactivator interface {
	Deactivate(ctx context.Context) error
}

// FlowMetrics summarises what passed through a component
type FlowMetrics struct {
	Received     int64     `json:"received"`
	Emitted      int64     `json:"emitted"`
	Errors       int64     `json:"errors"`
	LastActivity time.Time `json:"last_activity"`
}

// DataFlowReporter is implemented by components that track their own throughput.
type DataFlowReporter interface {
	DataFlow() FlowMetrics
}

// IsEmitter reports whether c can emit, returning the Emitter view.
func IsEmitter(c Component) (Emitter, bool) {
	e, ok := c.(Emitter)
	return e, ok
}

// IsReceiver reports whether c can receive, returning the Receiver view.
func IsReceiver(c Component) (Receiver, bool) {
	r, ok := c.(Receiver)
	return r, ok
}

// EmitFunc hands records to the graph as if the component had emitted them
// on port. It returns once the propagation has finished.
type EmitFunc func(ctx context.Context, port int, records ...*record.Record) error

// Runner is implemented by emitters that produce records on their own, such
// as network inputs. The manager calls Run in its own goroutine once the
// component is part of the active graph and cancels ctx when it leaves.
// Run blocks until ctx is done.
type Runner interface {
	Run(ctx context.Context, emit EmitFunc) error
}
