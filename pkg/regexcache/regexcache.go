// Package regexcache provides a bounded cache of compiled regular expressions.
//
// A cache is owned by whoever creates it (the wire engine creates one per
// manager) and is safe for concurrent use. Reconfiguring a filter with a
// pattern that was already seen reuses the compiled program.
package regexcache

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/c360/wirestreams/errors"
)

const (
	// DefaultSize is the number of compiled patterns kept by New(0).
	DefaultSize = 128
	// MaxPatternLength bounds the source length of a pattern.
	MaxPatternLength = 500
	// MaxNesting bounds group nesting depth.
	MaxNesting = 5
)

// Cache maps pattern sources to compiled programs with LRU eviction.
type Cache struct {
	compiled *lru.Cache[string, *regexp.Regexp]
}

// New creates a cache holding up to size patterns. Sizes below 1 use DefaultSize.
func New(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultSize
	}
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, errors.WrapInvalid(err, "regexcache", "New", "create lru")
	}
	return &Cache{compiled: c}, nil
}

// Compile returns the compiled form of pattern, compiling and caching it on a miss.
// A nil Cache compiles without caching.
func (c *Cache) Compile(pattern string) (*regexp.Regexp, error) {
	if c != nil {
		if re, ok := c.compiled.Get(pattern); ok {
			return re, nil
		}
	}

	if err := ValidateComplexity(pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WrapInvalid(err, "regexcache", "Compile", fmt.Sprintf("compile pattern %q", pattern))
	}

	if c != nil {
		c.compiled.Add(pattern, re)
	}
	return re, nil
}

// CompileFull compiles pattern so that it only matches whole strings.
func (c *Cache) CompileFull(pattern string) (*regexp.Regexp, error) {
	return c.Compile(Anchor(pattern))
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.compiled.Len()
}

// Anchor wraps pattern so it matches the entire input or nothing.
func Anchor(pattern string) string {
	return `^(?:` + pattern + `)$`
}

// ValidateComplexity rejects patterns that are too long or too deeply nested.
func ValidateComplexity(pattern string) error {
	if len(pattern) > MaxPatternLength {
		return errors.WrapInvalid(
			fmt.Errorf("pattern too long (max %d chars): %d chars", MaxPatternLength, len(pattern)),
			"regexcache", "ValidateComplexity", "length check")
	}

	depth, maxDepth := 0, 0
	escaped := false
	for _, ch := range pattern {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ch == ')':
			depth--
		}
	}
	// Anchor adds one non-capturing group around the caller's pattern
	limit := MaxNesting
	if strings.HasPrefix(pattern, "^(?:") && strings.HasSuffix(pattern, ")$") {
		limit++
	}
	if maxDepth > limit {
		return errors.WrapInvalid(
			fmt.Errorf("pattern nesting depth %d exceeds %d", maxDepth, MaxNesting),
			"regexcache", "ValidateComplexity", "nesting check")
	}
	return nil
}
