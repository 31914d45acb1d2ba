package regexfilter

import (
	"fmt"
	"regexp"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/pkg/regexcache"
	"github.com/c360/wirestreams/record"
)

// Mode selects which side of the partition a Filter keeps.
type Mode int

// Filter modes. The numeric values are the filter.type property values.
const (
	Retain Mode = 0 // keep fields whose name matches
	Remove Mode = 1 // keep fields whose name does not match
)

func (m Mode) String() string {
	switch m {
	case Retain:
		return "retain"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a filter.type value to a Mode.
func ParseMode(v int64) (Mode, error) {
	switch Mode(v) {
	case Retain, Remove:
		return Mode(v), nil
	}
	return 0, errors.WrapInvalid(fmt.Errorf("filter.type must be 0 or 1, got %d", v),
		"regexfilter", "ParseMode", "mode validation")
}

// Filter partitions record fields by matching their names against a
// pattern. The pattern must match the whole name.
type Filter struct {
	pattern string
	re      *regexp.Regexp
	mode    Mode
}

// New compiles pattern for full-string matching.
func New(pattern string, mode Mode) (*Filter, error) {
	return NewCached(nil, pattern, mode)
}

// NewCached is New with compiled patterns shared through cache.
func NewCached(cache *regexcache.Cache, pattern string, mode Mode) (*Filter, error) {
	if _, err := ParseMode(int64(mode)); err != nil {
		return nil, err
	}
	re, err := cache.CompileFull(pattern)
	if err != nil {
		return nil, errors.WrapInvalid(err, "regexfilter", "New", "compile pattern")
	}
	return &Filter{pattern: pattern, re: re, mode: mode}, nil
}

// Pattern returns the source pattern, unanchored.
func (f *Filter) Pattern() string { return f.pattern }

// Mode returns the filter mode.
func (f *Filter) Mode() Mode { return f.mode }

// Matches reports whether name matches the pattern in full.
func (f *Filter) Matches(name string) bool {
	return f.re.MatchString(name)
}

// Apply returns the part of rec selected by the filter mode, preserving field
// order. An empty record, and in Retain mode a record whose every field
// matches, is returned as the same pointer.
//
// If filtering fails, rec is returned unchanged together with the error.
func (f *Filter) Apply(rec *record.Record) (out *record.Record, err error) {
	if rec.IsEmpty() {
		return rec, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = rec
			err = errors.WrapFatal(fmt.Errorf("panic: %v", r), "regexfilter", "Apply", "filter record")
		}
	}()

	names := rec.Names()
	matched := 0
	for _, name := range names {
		if f.re.MatchString(name) {
			matched++
		}
	}

	switch f.mode {
	case Retain:
		if matched == len(names) {
			return rec, nil
		}
		return rec.Select(f.re.MatchString), nil
	default:
		return rec.Select(func(name string) bool { return !f.re.MatchString(name) }), nil
	}
}
