// Package mathop provides the math-transform component: a single-operand
// function applied to one numeric field of every record.
//
// # Functions
//
// Windowed functions keep the last window.size operands:
//
//   - average, median, min, max
//   - range (max minus min over the window)
//
// Stateless functions: abs, negate, sqrt, sin, cos, tan, log, exp.
//
// Each component instance has its own window. Reconfiguring a graph keeps a
// transform's window only when its properties are unchanged.
//
// # Output
//
// The result is written as a Double under result.name. With
// emit.received.properties the incoming record is re-emitted with the result
// added (an existing field of that name is overwritten in place); otherwise
// the output record holds only the result.
//
//	{"id": "avg", "kind": "math-transform", "properties": {
//	    "parameter.name": "temperature",
//	    "result.name": "temperature_avg",
//	    "function": "average",
//	    "window.size": 3
//	}}
package mathop
