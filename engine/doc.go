// Package engine hosts the wire graph manager: it turns a types.GraphSpec
// into running components, drives envelopes through them, and swaps graphs
// at runtime.
//
// # Overview
//
// A Manager owns exactly one graph at a time. Graph descriptions are
// validated in full before anything becomes visible: every component is
// created through the component.Registry, then the wires are checked by
// flowgraph. Any problem rejects the whole description with an
// errors.ValidationError listing every issue found.
//
// # Lifecycle
//
//	Unconfigured ──Activate──> Validating ──> Active
//	                                            │ ▲
//	                                 Reconfigure│ │
//	                                            ▼ │
//	                                       Reconfiguring
//	any state ──Teardown──> TornDown (terminal)
//
// # Propagation
//
// Propagate is synchronous. It delivers to each receiver wired to the source
// port in wire declaration order, and each receiver's own emissions travel
// their full depth before the next sibling is called. Propagations are
// serialized per Manager.
//
//	err := mgr.Propagate(ctx, "source", 0, []*record.Record{
//		record.New(record.F("temperature", typed.Double(21.5))),
//	})
//
// A failing receiver only loses its own branch. The failure is logged with
// the propagation_id, counted, and published on the Events bus.
//
// # Reconfiguration
//
// Reconfigure builds the new graph while the old one keeps serving. A
// component whose id, kind and properties are unchanged is carried into the
// new graph as the same instance, so windowed state is kept. The swap waits
// for the in-flight propagation; after it, components that left the graph
// are deactivated.
package engine
