// Package wirestreams hosts wire graphs: components that pass immutable
// records to each other along numbered ports, reconfigurable while data
// keeps flowing.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          cmd/wirestreams            │  Config layers, signals,
//	│  (config, NATS, metrics, health)    │  graph store watch
//	└─────────────────────────────────────┘
//	           ↓ activates / reconfigures
//	┌─────────────────────────────────────┐
//	│          engine.Manager             │  Build, validate, swap,
//	│   (propagate depth-first, events)   │  tear down
//	└─────────────────────────────────────┘
//	           ↓ delivers envelopes to
//	┌─────────────────────────────────────┐
//	│           Components                │  udp-source, regex-filter,
//	│  (emitters, receivers, runners)     │  math-transform, record-store,
//	└─────────────────────────────────────┘  logger
//
// A graph is declared as data (types.GraphSpec): components by id, kind
// and properties, and wires from an output port to an input port.
//
//	graph:
//	  components:
//	    - id: in
//	      kind: udp-source
//	      properties: {bind.port: 14550}
//	    - id: avg
//	      kind: math-transform
//	      properties: {function: average, parameter.name: temperature, window.size: 10}
//	    - id: store
//	      kind: record-store
//	      properties: {table.name: readings, maximum.table.size: 10000}
//	  wires:
//	    - {from: in, from_port: 0, to: avg, to_port: 0}
//	    - {from: avg, from_port: 0, to: store, to_port: 0}
//
// # Packages
//
//   - typed, record: typed values and the immutable records built from them
//   - types: graph specifications and component properties
//   - component: capabilities (Emitter, Receiver, Runner) and the kind registry
//   - engine: the graph manager and depth-first propagation
//   - processor/regexfilter, processor/mathop, processor/stats: transforms
//   - storage/recordstore, output/logsink: sinks
//   - input/udp: the datagram source
//   - config, flowstore: where graphs come from (files, NATS KV)
//   - events, health, metric: what the host reports
//
// # Delivery
//
// Propagation is synchronous and depth-first: a receiver's emissions travel
// their whole subtree before its next sibling receives anything. A failing
// receiver abandons only its own branch. Reconfiguration builds the new graph
// beside the old one, reuses components whose id, kind and properties did
// not change, and swaps between propagations.
package wirestreams
