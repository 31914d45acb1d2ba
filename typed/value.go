// Package typed provides the tagged scalar values carried in record fields.
//
// A Value pairs a Kind with a Go payload of exactly the matching type. Reads and
// conversions are explicit and fallible: nothing widens an int32 to an int64 or a
// float to a double behind the caller's back.
package typed

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/c360/wirestreams/errors"
)

// Kind identifies the type of a Value.
type Kind uint8

// Value kinds
const (
	KindInvalid Kind = iota
	KindBoolean
	KindByte
	KindShort
	KindInteger
	KindLong
	KindFloat
	KindDouble
	KindString
	KindByteArray
)

var kindNames = [...]string{
	KindInvalid:   "INVALID",
	KindBoolean:   "BOOLEAN",
	KindByte:      "BYTE",
	KindShort:     "SHORT",
	KindInteger:   "INTEGER",
	KindLong:      "LONG",
	KindFloat:     "FLOAT",
	KindDouble:    "DOUBLE",
	KindString:    "STRING",
	KindByteArray: "BYTE_ARRAY",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "INVALID"
}

// IsNumeric reports whether values of this kind hold a number.
func (k Kind) IsNumeric() bool {
	return k >= KindByte && k <= KindDouble
}

// ParseKind resolves a kind from its name, ignoring case.
func ParseKind(name string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for k := KindBoolean; k <= KindByteArray; k++ {
		if kindNames[k] == upper {
			return k, nil
		}
	}
	return KindInvalid, errors.WrapInvalid(
		fmt.Errorf("unknown kind %q", name), "typed", "ParseKind", "kind lookup")
}

// Value is an immutable kind-tagged scalar. The zero Value is invalid.
type Value struct {
	kind Kind
	raw  any
}

// Bool creates a BOOLEAN value.
func Bool(b bool) Value { return Value{kind: KindBoolean, raw: b} }

// Byte creates a BYTE value.
func Byte(b int8) Value { return Value{kind: KindByte, raw: b} }

// Short creates a SHORT value.
func Short(s int16) Value { return Value{kind: KindShort, raw: s} }

// Int creates an INTEGER value.
func Int(i int32) Value { return Value{kind: KindInteger, raw: i} }

// Long creates a LONG value.
func Long(l int64) Value { return Value{kind: KindLong, raw: l} }

// Float creates a FLOAT value.
func Float(f float32) Value { return Value{kind: KindFloat, raw: f} }

// Double creates a DOUBLE value.
func Double(d float64) Value { return Value{kind: KindDouble, raw: d} }

// String creates a STRING value.
func String(s string) Value { return Value{kind: KindString, raw: s} }

// Bytes creates a BYTE_ARRAY value holding a private copy of b.
func Bytes(b []byte) Value { return Value{kind: KindByteArray, raw: bytes.Clone(b)} }

// Of creates a value of the given kind. raw must already be the exact Go type
// of that kind (bool, int8, int16, int32, int64, float32, float64, string, []byte).
func Of(kind Kind, raw any) (Value, error) {
	var ok bool
	switch kind {
	case KindBoolean:
		_, ok = raw.(bool)
	case KindByte:
		_, ok = raw.(int8)
	case KindShort:
		_, ok = raw.(int16)
	case KindInteger:
		_, ok = raw.(int32)
	case KindLong:
		_, ok = raw.(int64)
	case KindFloat:
		_, ok = raw.(float32)
	case KindDouble:
		_, ok = raw.(float64)
	case KindString:
		_, ok = raw.(string)
	case KindByteArray:
		var b []byte
		if b, ok = raw.([]byte); ok {
			return Bytes(b), nil
		}
	}
	if !ok {
		return Value{}, &errors.ConversionError{
			From:   fmt.Sprintf("%T", raw),
			To:     kind.String(),
			Reason: "payload type does not match kind",
		}
	}
	return Value{kind: kind, raw: raw}, nil
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was constructed with a kind.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.kind.IsNumeric() }

// Raw returns the payload. Byte arrays are copied.
func (v Value) Raw() any {
	if b, ok := v.raw.([]byte); ok {
		return bytes.Clone(b)
	}
	return v.raw
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindByteArray {
		return bytes.Equal(v.raw.([]byte), o.raw.([]byte))
	}
	return v.raw == o.raw
}

// String renders the payload. Byte arrays are rendered as hex.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return "<invalid>"
	case bool:
		return strconv.FormatBool(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []byte:
		return hex.EncodeToString(x)
	default:
		return fmt.Sprint(x)
	}
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	switch x := v.raw.(type) {
	case []byte:
		return slog.StringValue(hex.EncodeToString(x))
	case nil:
		return slog.StringValue("<invalid>")
	default:
		return slog.AnyValue(x)
	}
}
