// Package record defines the immutable records and envelopes that travel along wires.
package record

import (
	"log/slog"

	"github.com/c360/wirestreams/typed"
)

// Field is a named typed value inside a Record.
type Field struct {
	Name  string
	Value typed.Value
}

// F is shorthand for building a Field.
func F(name string, value typed.Value) Field {
	return Field{Name: name, Value: value}
}

// Record is an insertion-ordered, immutable mapping from field name to value.
// Operations that "change" a record return a new one; callers may compare
// pointers to tell whether a record was passed through untouched.
type Record struct {
	fields []Field
	index  map[string]int
}

// New builds a record from fields in order. A repeated name overwrites the
// earlier value in place.
func New(fields ...Field) *Record {
	r := &Record{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if i, ok := r.index[f.Name]; ok {
			r.fields[i].Value = f.Value
			continue
		}
		r.index[f.Name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (typed.Value, bool) {
	if r == nil {
		return typed.Value{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return typed.Value{}, false
	}
	return r.fields[i].Value, true
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// IsEmpty reports whether the record has no fields.
func (r *Record) IsEmpty() bool { return r.Len() == 0 }

// Names returns the field names in order.
func (r *Record) Names() []string {
	names := make([]string, r.Len())
	for i := range names {
		names[i] = r.fields[i].Name
	}
	return names
}

// Fields returns a copy of the fields in order.
func (r *Record) Fields() []Field {
	out := make([]Field, r.Len())
	if r != nil {
		copy(out, r.fields)
	}
	return out
}

// With returns a copy of r with name set to value. An existing field keeps its
// position; a new field is appended.
func (r *Record) With(name string, value typed.Value) *Record {
	fields := r.Fields()
	if i, ok := r.lookup(name); ok {
		fields[i].Value = value
	} else {
		fields = append(fields, Field{Name: name, Value: value})
	}
	return New(fields...)
}

// Select returns a new record with the fields for which keep returns true,
// in their original order.
func (r *Record) Select(keep func(name string) bool) *Record {
	kept := make([]Field, 0, r.Len())
	for _, f := range r.Fields() {
		if keep(f.Name) {
			kept = append(kept, f)
		}
	}
	return New(kept...)
}

// Equal reports whether both records hold the same fields in the same order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for i := 0; i < r.Len(); i++ {
		a, b := r.fields[i], o.fields[i]
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// LogValue renders the record as a slog group in field order.
func (r *Record) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, r.Len())
	for _, f := range r.Fields() {
		attrs = append(attrs, slog.Any(f.Name, f.Value))
	}
	return slog.GroupValue(attrs...)
}

func (r *Record) lookup(name string) (int, bool) {
	if r == nil {
		return 0, false
	}
	i, ok := r.index[name]
	return i, ok
}
