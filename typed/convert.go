package typed

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/c360/wirestreams/errors"
)

// As returns the payload of v as T. It fails unless the payload is exactly T;
// use Convert for an explicit change of kind.
func As[T any](v Value) (T, error) {
	t, ok := v.raw.(T)
	if !ok {
		var zero T
		return zero, &errors.ConversionError{
			From:   v.kind.String(),
			To:     fmt.Sprintf("%T", zero),
			Reason: "payload is not of the requested type",
		}
	}
	if b, isBytes := any(t).([]byte); isBytes {
		return any(bytes.Clone(b)).(T), nil
	}
	return t, nil
}

// Float64 reads a numeric value as float64. Non-numeric kinds fail.
func (v Value) Float64() (float64, error) {
	switch x := v.raw.(type) {
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return 0, &errors.ConversionError{From: v.kind.String(), To: KindDouble.String(), Reason: "value is not numeric"}
}

// Convert produces a value of kind to from v.
//
// Numeric kinds convert to each other when the number fits the target without
// losing its integral part. STRING parses into numeric and BOOLEAN kinds. Every
// kind except BYTE_ARRAY renders into STRING. Anything else is refused.
func Convert(v Value, to Kind) (Value, error) {
	if v.kind == to {
		return v, nil
	}
	fail := func(reason string) (Value, error) {
		return Value{}, &errors.ConversionError{From: v.kind.String(), To: to.String(), Reason: reason}
	}

	switch {
	case !v.IsValid() || to == KindInvalid:
		return fail("invalid kind")
	case to == KindString:
		if v.kind == KindByteArray {
			return fail("byte arrays have no textual form")
		}
		return String(v.String()), nil
	case v.kind == KindString:
		return parse(v.raw.(string), to)
	case v.IsNumeric() && to.IsNumeric():
		if to == KindFloat || to == KindDouble {
			f, _ := v.Float64()
			return fromFloat(f, to)
		}
		if i, ok := integral(v); ok {
			return fromInt(i, to)
		}
		f, _ := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return fail("value has a fractional part or is not finite")
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return fail("value out of range")
		}
		return fromInt(int64(f), to)
	}
	return fail("no conversion between these kinds")
}

func integral(v Value) (int64, bool) {
	switch x := v.raw.(type) {
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func fromInt(i int64, to Kind) (Value, error) {
	outOfRange := &errors.ConversionError{From: KindLong.String(), To: to.String(), Reason: "value out of range"}
	switch to {
	case KindByte:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return Value{}, outOfRange
		}
		return Byte(int8(i)), nil
	case KindShort:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return Value{}, outOfRange
		}
		return Short(int16(i)), nil
	case KindInteger:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return Value{}, outOfRange
		}
		return Int(int32(i)), nil
	case KindLong:
		return Long(i), nil
	case KindFloat, KindDouble:
		return fromFloat(float64(i), to)
	}
	return Value{}, &errors.ConversionError{From: KindLong.String(), To: to.String(), Reason: "not a numeric kind"}
}

func fromFloat(f float64, to Kind) (Value, error) {
	if to == KindDouble {
		return Double(f), nil
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return Value{}, &errors.ConversionError{From: KindDouble.String(), To: to.String(), Reason: "value out of range"}
	}
	return Float(float32(f)), nil
}

func parse(s string, to Kind) (Value, error) {
	fail := func(err error) (Value, error) {
		return Value{}, &errors.ConversionError{From: KindString.String(), To: to.String(), Reason: err.Error()}
	}
	switch to {
	case KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fail(err)
		}
		return Bool(b), nil
	case KindByte, KindShort, KindInteger, KindLong:
		bits := map[Kind]int{KindByte: 8, KindShort: 16, KindInteger: 32, KindLong: 64}[to]
		i, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return fail(err)
		}
		return fromInt(i, to)
	case KindFloat, KindDouble:
		bits := 64
		if to == KindFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(s, bits)
		if err != nil {
			return fail(err)
		}
		return fromFloat(f, to)
	}
	return fail(fmt.Errorf("strings do not parse into %s", to))
}
