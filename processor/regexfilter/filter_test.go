package regexfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/pkg/regexcache"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
)

func sensorRecord() *record.Record {
	return record.New(
		record.F("temperature", typed.Double(21.5)),
		record.F("humidity", typed.Double(40)),
		record.F("temp_max", typed.Double(30)),
		record.F("airtemp", typed.Double(19)),
	)
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		mode    Mode
		want    []string
	}{
		{name: "retain prefix", pattern: "^temp.*", mode: Retain, want: []string{"temperature", "temp_max"}},
		{name: "remove prefix", pattern: "^temp.*", mode: Remove, want: []string{"humidity", "airtemp"}},
		{name: "full match only", pattern: "temp", mode: Retain, want: []string{}},
		{name: "alternation", pattern: "humidity|airtemp", mode: Retain, want: []string{"humidity", "airtemp"}},
		{name: "remove nothing", pattern: "pressure", mode: Remove, want: []string{"temperature", "humidity", "temp_max", "airtemp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.pattern, tt.mode)
			require.NoError(t, err)

			out, err := f.Apply(sensorRecord())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Names())
		})
	}
}

func TestFilterPartition(t *testing.T) {
	rec := sensorRecord()
	for _, pattern := range []string{"^temp.*", ".*", "x", "[a-h].*", "temp.*|hum.*"} {
		retain, err := New(pattern, Retain)
		require.NoError(t, err)
		remove, err := New(pattern, Remove)
		require.NoError(t, err)

		kept, err := retain.Apply(rec)
		require.NoError(t, err)
		rest, err := remove.Apply(rec)
		require.NoError(t, err)

		assert.Equal(t, rec.Len(), kept.Len()+rest.Len(), pattern)
		for _, name := range rec.Names() {
			_, inKept := kept.Get(name)
			_, inRest := rest.Get(name)
			assert.True(t, inKept != inRest, "%s: field %s must be on exactly one side", pattern, name)
		}
	}
}

func TestFilterIdentity(t *testing.T) {
	rec := sensorRecord()

	all, err := New(".*", Retain)
	require.NoError(t, err)
	out, err := all.Apply(rec)
	require.NoError(t, err)
	assert.Same(t, rec, out, "retain with every field matching returns the same record")

	empty := record.New()
	out, err = all.Apply(empty)
	require.NoError(t, err)
	assert.Same(t, empty, out)

	some, err := New("humidity", Retain)
	require.NoError(t, err)
	out, err = some.Apply(rec)
	require.NoError(t, err)
	assert.NotSame(t, rec, out)
	assert.Equal(t, 4, rec.Len(), "input is never modified")
}

func TestFilterInvalid(t *testing.T) {
	_, err := New("(unclosed", Retain)
	assert.True(t, errors.IsInvalid(err))

	_, err = New("a", Mode(7))
	assert.True(t, errors.IsInvalid(err))

	_, err = ParseMode(2)
	assert.Error(t, err)
}

func TestFilterSharesCache(t *testing.T) {
	cache, err := regexcache.New(4)
	require.NoError(t, err)

	a, err := NewCached(cache, "^temp.*", Retain)
	require.NoError(t, err)
	b, err := NewCached(cache, "^temp.*", Remove)
	require.NoError(t, err)

	assert.Same(t, a.re, b.re)
	assert.Equal(t, 1, cache.Len())
}
