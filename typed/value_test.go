package typed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/errors"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     any
		wantErr bool
	}{
		{"boolean", KindBoolean, true, false},
		{"byte", KindByte, int8(-3), false},
		{"short", KindShort, int16(300), false},
		{"integer", KindInteger, int32(7), false},
		{"long", KindLong, int64(1 << 40), false},
		{"float", KindFloat, float32(1.5), false},
		{"double", KindDouble, 2.5, false},
		{"string", KindString, "x", false},
		{"byte array", KindByteArray, []byte{1, 2}, false},
		{"no widening int into long", KindLong, int32(7), true},
		{"no widening float into double", KindDouble, float32(1), true},
		{"go int is not integer", KindInteger, 7, true},
		{"invalid kind", KindInvalid, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Of(tt.kind, tt.raw)
			if tt.wantErr {
				var convErr *errors.ConversionError
				require.ErrorAs(t, err, &convErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestAs(t *testing.T) {
	v := Int(42)

	i, err := As[int32](v)
	require.NoError(t, err)
	assert.Equal(t, int32(42), i)

	_, err = As[int64](v)
	var convErr *errors.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "INTEGER", convErr.From)
	assert.True(t, errors.IsInvalid(err))
}

func TestBytesAreCopied(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)
	src[0] = 9

	out, err := As[[]byte](v)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out)

	out[1] = 9
	again, _ := As[[]byte](v)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestFloat64(t *testing.T) {
	for _, v := range []Value{Byte(2), Short(2), Int(2), Long(2), Float(2), Double(2)} {
		f, err := v.Float64()
		require.NoError(t, err, v.Kind().String())
		assert.Equal(t, 2.0, f)
	}

	_, err := String("2").Float64()
	assert.Error(t, err)
	_, err = Bool(true).Float64()
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		to      Kind
		want    Value
		wantErr bool
	}{
		{"integer to long", Int(5), KindLong, Long(5), false},
		{"long to byte in range", Long(-128), KindByte, Byte(-128), false},
		{"long to byte out of range", Long(128), KindByte, Value{}, true},
		{"double to integer integral", Double(12), KindInteger, Int(12), false},
		{"double to integer fractional", Double(1.5), KindInteger, Value{}, true},
		{"double to float overflow", Double(math.MaxFloat64), KindFloat, Value{}, true},
		{"string to double", String("2.25"), KindDouble, Double(2.25), false},
		{"string to short", String("123"), KindShort, Short(123), false},
		{"string to boolean", String("true"), KindBoolean, Bool(true), false},
		{"bad string to long", String("abc"), KindLong, Value{}, true},
		{"double to string", Double(0.5), KindString, String("0.5"), false},
		{"bytes to string refused", Bytes([]byte{1}), KindString, Value{}, true},
		{"boolean to integer refused", Bool(true), KindInteger, Value{}, true},
		{"same kind", Short(3), KindShort, Short(3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("byte_array")
	require.NoError(t, err)
	assert.Equal(t, KindByteArray, k)

	_, err = ParseKind("decimal")
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	assert.True(t, Bytes([]byte("a")).Equal(Bytes([]byte("a"))))
	assert.False(t, Int(1).Equal(Long(1)))
	assert.False(t, Value{}.IsValid())
}
