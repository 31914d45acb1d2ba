// Package udp provides the udp-source component, which feeds a wire graph
// from JSON datagrams.
//
// # Payload
//
// Each datagram holds one JSON object or an array of objects. Every object
// becomes one record whose fields keep the document's order:
//
//	{"device": "t-17", "temperature": 21.5, "seq": 42, "ok": true}
//
// yields device (String), temperature (Double), seq (Long) and ok (Boolean).
// Members holding null, arrays or nested objects are dropped with a
// warning. A datagram that is not valid JSON of that shape is dropped whole.
//
// # Configuration
//
//	{
//	  "id": "ingest",
//	  "kind": "udp-source",
//	  "properties": {"bind.address": "0.0.0.0", "bind.port": 14550}
//	}
//
// bind.address defaults to 127.0.0.1 and bind.port to 0, which lets the
// operating system choose a port (see Source.Addr).
//
// # Lifecycle
//
// The factory performs no I/O. The socket is bound, with retry, when the
// engine starts the component's Run loop after the graph becomes active,
// and closed when the component leaves the graph. Records from one datagram
// are emitted together as one envelope, and Run waits for the resulting
// propagation before reading the next datagram.
package udp
