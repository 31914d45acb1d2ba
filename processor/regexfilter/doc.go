// Package regexfilter provides the regex-filter component, which keeps or
// removes record fields by matching their names against a regular expression.
//
// # Matching
//
// Patterns match whole field names: "temp.*" matches "temperature" but not
// "airtemp". Internally the pattern is anchored as ^(?:pattern)$.
//
// # Modes
//
//   - Retain (filter.type = 0): keep the fields whose names match
//   - Remove (filter.type = 1): keep the fields whose names do not match
//
// For any record the two modes partition its fields. Field order is kept.
//
// # Properties
//
//	{"id": "f1", "kind": "regex-filter", "properties": {
//	    "regex.filter": "^temp.*",
//	    "filter.type": 0
//	}}
//
// An empty or missing regex.filter makes the component a pass-through.
// Every received record is emitted, including records left with no fields.
//
// A pattern that does not compile does not stop the graph. The error is
// logged when the component is built, and from then on records pass
// through unfiltered and are counted as errors.
package regexfilter
