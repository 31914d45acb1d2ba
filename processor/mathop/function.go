package mathop

import (
	"fmt"
	"math"
	"sort"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/processor/stats"
)

// Func maps one operand to one result. Windowed functions keep state between
// calls; every Func returned by NewFunc owns its own window.
type Func func(x float64) float64

type constructor struct {
	windowed bool
	build    func(window int) Func
}

var functions = map[string]constructor{
	"average": {windowed: true, build: func(n int) Func { return stats.NewAverage(n).Add }},
	"median":  {windowed: true, build: func(n int) Func { return stats.NewMedian(n).Add }},
	"min": {windowed: true, build: func(n int) Func {
		e := stats.NewExtremes(n)
		return func(x float64) float64 {
			lo, _ := e.Add(x)
			return lo
		}
	}},
	"max": {windowed: true, build: func(n int) Func {
		e := stats.NewExtremes(n)
		return func(x float64) float64 {
			_, hi := e.Add(x)
			return hi
		}
	}},
	"range": {windowed: true, build: func(n int) Func {
		e := stats.NewExtremum[float64](n)
		return func(x float64) float64 {
			e.Add(x)
			lo, _ := e.Min()
			hi, _ := e.Max()
			return hi - lo
		}
	}},

	"abs":    stateless(math.Abs),
	"negate": stateless(func(x float64) float64 { return -x }),
	"sqrt":   stateless(math.Sqrt),
	"sin":    stateless(math.Sin),
	"cos":    stateless(math.Cos),
	"tan":    stateless(math.Tan),
	"log":    stateless(math.Log),
	"exp":    stateless(math.Exp),
}

func stateless(f func(float64) float64) constructor {
	return constructor{build: func(int) Func { return f }}
}

// NewFunc returns a fresh instance of the named function. window is the
// window size of windowed functions and must be at least 1; stateless
// functions ignore it.
func NewFunc(name string, window int) (Func, error) {
	c, ok := functions[name]
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("unknown function %q", name),
			"mathop", "NewFunc", "function lookup")
	}
	if c.windowed && window < 1 {
		return nil, errors.WrapInvalid(fmt.Errorf("window size must be at least 1, got %d", window),
			"mathop", "NewFunc", "window validation")
	}
	return c.build(window), nil
}

// IsWindowed reports whether the named function keeps a window.
func IsWindowed(name string) bool {
	return functions[name].windowed
}

// Functions returns the supported function names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
