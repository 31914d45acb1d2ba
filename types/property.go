package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/c360/wirestreams/errors"
)

// PropertyKind identifies the type held by a Property.
type PropertyKind int

// Property kinds
const (
	PropertyString PropertyKind = iota + 1
	PropertyInt
	PropertyFloat
	PropertyBool
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyString:
		return "string"
	case PropertyInt:
		return "int"
	case PropertyFloat:
		return "float"
	case PropertyBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Property is a configuration value: exactly one of string, int, float or bool.
type Property struct {
	kind PropertyKind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringProperty creates a string property.
func StringProperty(s string) Property { return Property{kind: PropertyString, s: s} }

// IntProperty creates an integer property.
func IntProperty(i int64) Property { return Property{kind: PropertyInt, i: i} }

// FloatProperty creates a floating point property.
func FloatProperty(f float64) Property { return Property{kind: PropertyFloat, f: f} }

// BoolProperty creates a boolean property.
func BoolProperty(b bool) Property { return Property{kind: PropertyBool, b: b} }

// Kind returns the property kind.
func (p Property) Kind() PropertyKind { return p.kind }

// Value returns the property as a plain Go value.
func (p Property) Value() any {
	switch p.kind {
	case PropertyString:
		return p.s
	case PropertyInt:
		return p.i
	case PropertyFloat:
		return p.f
	case PropertyBool:
		return p.b
	}
	return nil
}

// PropertyOf converts a decoded JSON or YAML scalar into a Property.
func PropertyOf(v any) (Property, error) {
	switch x := v.(type) {
	case Property:
		return x, nil
	case string:
		return StringProperty(x), nil
	case bool:
		return BoolProperty(x), nil
	case int:
		return IntProperty(int64(x)), nil
	case int32:
		return IntProperty(int64(x)), nil
	case int64:
		return IntProperty(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return Property{}, fmt.Errorf("integer %d out of range", x)
		}
		return IntProperty(int64(x)), nil
	case float32:
		return FloatProperty(float64(x)), nil
	case float64:
		return FloatProperty(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntProperty(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Property{}, err
		}
		return FloatProperty(f), nil
	}
	return Property{}, fmt.Errorf("unsupported property type %T", v)
}

// Properties holds a component's configuration. Typed accessors return the
// supplied default when a key is absent or holds a different kind.
type Properties map[string]Property

// PropertiesFrom converts a decoded map into Properties.
func PropertiesFrom(m map[string]any) (Properties, error) {
	props := make(Properties, len(m))
	for key, raw := range m {
		p, err := PropertyOf(raw)
		if err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("property %q: %w", key, err),
				"Properties", "PropertiesFrom", "property conversion")
		}
		props[key] = p
	}
	return props, nil
}

// Has reports whether key is set.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the string stored under key, or def.
func (p Properties) String(key, def string) string {
	if v, ok := p[key]; ok && v.kind == PropertyString {
		return v.s
	}
	return def
}

// Int returns the integer stored under key, or def.
func (p Properties) Int(key string, def int64) int64 {
	if v, ok := p[key]; ok && v.kind == PropertyInt {
		return v.i
	}
	return def
}

// Float returns the float stored under key, or def.
func (p Properties) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok && v.kind == PropertyFloat {
		return v.f
	}
	return def
}

// Bool returns the boolean stored under key, or def.
func (p Properties) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok && v.kind == PropertyBool {
		return v.b
	}
	return def
}

// Equal reports whether both maps hold the same keys with identical properties.
func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for key, v := range p {
		if w, ok := o[key]; !ok || v != w {
			return false
		}
	}
	return true
}

// Map returns the properties as plain Go values.
func (p Properties) Map() map[string]any {
	out := make(map[string]any, len(p))
	for key, v := range p {
		out[key] = v.Value()
	}
	return out
}

// Keys returns the sorted property names.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes properties as a plain object.
func (p Properties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// UnmarshalJSON decodes a plain object. Integral numbers become int properties.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return errors.WrapInvalid(err, "Properties", "UnmarshalJSON", "decode")
	}
	props, err := PropertiesFrom(raw)
	if err != nil {
		return err
	}
	*p = props
	return nil
}

// MarshalYAML encodes properties as a plain mapping.
func (p Properties) MarshalYAML() (any, error) {
	return p.Map(), nil
}

// UnmarshalYAML decodes a plain mapping.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return errors.WrapInvalid(err, "Properties", "UnmarshalYAML", "decode")
	}
	props, err := PropertiesFrom(raw)
	if err != nil {
		return err
	}
	*p = props
	return nil
}
