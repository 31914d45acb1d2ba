package engine

import (
	"context"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/record"
)

// run tracks the goroutine of one component.Runner.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startRunners launches Run for every runner among comps that is not
// already running. Called with lifecycleMu held, after the graph holding
// comps became current.
func (m *Manager) startRunners(comps []component.Component) {
	for _, c := range comps {
		r, ok := c.(component.Runner)
		if !ok {
			continue
		}
		if _, running := m.runs[c]; running {
			continue
		}

		id := c.Meta().ID
		ctx, cancel := context.WithCancel(context.Background())
		h := &run{cancel: cancel, done: make(chan struct{})}
		m.runs[c] = h

		emit := func(ctx context.Context, port int, records ...*record.Record) error {
			return m.Propagate(ctx, id, port, records)
		}
		go func() {
			defer close(h.done)
			defer func() {
				if v := recover(); v != nil {
					m.logger.Error("Component run panicked", "component", id, "panic", v)
				}
			}()
			if err := r.Run(ctx, emit); err != nil && ctx.Err() == nil {
				m.logger.Error("Component stopped running", "component", id, "error", err)
			}
		}()
		m.logger.Debug("Component running", "component", id)
	}
}

// stopRunners cancels the runners among comps and waits for them to return
// or for ctx to end. It must not be called with propMu held: a runner may be
// blocked in Propagate.
func (m *Manager) stopRunners(ctx context.Context, comps []component.Component) {
	var stopping []*run
	for _, c := range comps {
		h, ok := m.runs[c]
		if !ok {
			continue
		}
		delete(m.runs, c)
		h.cancel()
		stopping = append(stopping, h)
	}
	for _, h := range stopping {
		select {
		case <-h.done:
		case <-ctx.Done():
			m.logger.Warn("Gave up waiting for a component to stop running", "error", ctx.Err())
			return
		}
	}
}
