package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/component/flowgraph"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/events"
	"github.com/c360/wirestreams/record"
)

// propagation carries the state of one top-level Propagate call.
type propagation struct {
	id       string
	graph    *Graph
	logger   *slog.Logger
	failures int
}

// Propagate delivers records emitted by sourceID on port to everything wired
// downstream of it, depth-first in wire declaration order. It returns when
// every reachable receiver has handled its envelope.
//
// A receiver that returns an error or panics does not stop delivery to its
// siblings; the failure is logged, counted and published as a
// propagation.failed event, and only that branch is abandoned. The returned
// error reports problems with the call itself: wrong state, an unknown
// source, or a port the source does not have.
func (m *Manager) Propagate(ctx context.Context, sourceID string, port int, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}

	m.propMu.Lock()
	defer m.propMu.Unlock()

	g := m.current.Load()
	if g == nil || !m.State().CanPropagate() {
		return m.inactiveError("Propagate")
	}

	src, ok := g.comps[sourceID]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnknownComponent, sourceID), "Manager", "Propagate", "source lookup")
	}
	emitter, ok := component.IsEmitter(src)
	if !ok || port < 0 || port >= emitter.OutputPorts() {
		return errors.WrapInvalid(
			fmt.Errorf("%s has no output port %d", sourceID, port), "Manager", "Propagate", "source port check")
	}

	p := &propagation{id: uuid.NewString(), graph: g}
	p.logger = m.logger.With("propagation_id", p.id)

	start := time.Now()
	m.deliver(ctx, p, sourceID, port, records)
	m.metrics.recordPropagation(p.failures, time.Since(start).Seconds())
	return nil
}

// deliver hands records from one output port to each wired receiver in turn,
// finishing each receiver's subtree before moving to the next.
func (m *Manager) deliver(ctx context.Context, p *propagation, fromID string, fromPort int, records []*record.Record) {
	env := record.NewEnvelope(fromID, records...)

	for _, edge := range p.graph.flow.Downstream(fromID, fromPort) {
		m.deliverOne(ctx, p, edge, env)
	}
}

func (m *Manager) deliverOne(ctx context.Context, p *propagation, edge flowgraph.FlowEdge, env record.Envelope) {
	toID := edge.To.ComponentName
	recv, ok := component.IsReceiver(p.graph.comps[toID])
	if !ok {
		return
	}

	emissions, pf := invoke(ctx, recv, edge.To.Port, env)
	if pf != nil {
		m.fail(p, pf)
		return
	}

	outputs := 0
	if e, ok := component.IsEmitter(recv); ok {
		outputs = e.OutputPorts()
	} else {
		emissions = nil
	}
	for _, em := range emissions {
		if em.Port < 0 || em.Port >= outputs {
			m.fail(p, &errors.PropagationFailure{
				ComponentID: toID,
				Port:        edge.To.Port,
				Cause: errors.WrapInvalid(fmt.Errorf("emission on port %d, component has %d", em.Port, outputs),
					toID, "OnReceive", "output port check"),
			})
			return
		}
	}

	m.metrics.recordDelivery(toID)
	p.logger.Debug("Envelope delivered",
		"wire", edge.String(), "records", len(env.Records), "emissions", len(emissions))

	for _, em := range emissions {
		if len(em.Records) == 0 {
			continue
		}
		m.deliver(ctx, p, toID, em.Port, em.Records)
	}
}

// invoke calls OnReceive, converting a returned error or a panic into a
// PropagationFailure.
func invoke(ctx context.Context, recv component.Receiver, port int, env record.Envelope) (emissions []component.Emission, pf *errors.PropagationFailure) {
	id := recv.Meta().ID
	defer func() {
		if r := recover(); r != nil {
			emissions = nil
			pf = &errors.PropagationFailure{ComponentID: id, Port: port, Panic: r}
		}
	}()

	emissions, err := recv.OnReceive(ctx, port, env)
	if err != nil {
		return nil, &errors.PropagationFailure{ComponentID: id, Port: port, Cause: err}
	}
	return emissions, nil
}

func (m *Manager) fail(p *propagation, pf *errors.PropagationFailure) {
	p.failures++

	attrs := []any{"component", pf.ComponentID, "port", pf.Port, "reason", pf.Reason()}
	if pf.Panic != nil {
		attrs = append(attrs, "panic", fmt.Sprint(pf.Panic))
	} else {
		attrs = append(attrs, "error", pf.Cause)
	}
	p.logger.Error("Propagation failed", attrs...)

	m.metrics.recordFailure(pf.ComponentID, pf.Reason())
	m.bus.Publish(events.New(events.PropagationFailed).
		WithComponent(pf.ComponentID).
		WithAttr("port", strconv.Itoa(pf.Port)).
		WithAttr("reason", pf.Reason()).
		WithAttr("propagation_id", p.id).
		WithAttr("error", pf.Error()))
}
