package stats

import "github.com/c360/wirestreams/pkg/buffer"

// Extremes tracks the minimum and maximum of the last N values. It rescans the
// window only when the evicted value was one of the current extremes.
type Extremes struct {
	window   *buffer.Ring[float64]
	min, max float64
}

// NewExtremes creates a min/max tracker over a window of size values.
func NewExtremes(size int) *Extremes {
	return &Extremes{window: buffer.NewRing[float64](size)}
}

// Add pushes x and returns the window's minimum and maximum.
func (e *Extremes) Add(x float64) (min, max float64) {
	wasEmpty := e.window.Len() == 0
	old, evicted := e.window.Push(x)

	switch {
	case wasEmpty:
		e.min, e.max = x, x
	case evicted && (old == e.min || old == e.max):
		e.rescan()
	default:
		if x < e.min {
			e.min = x
		}
		if x > e.max {
			e.max = x
		}
	}
	return e.min, e.max
}

// Min returns the current minimum. It is zero until a value has been added.
func (e *Extremes) Min() float64 { return e.min }

// Max returns the current maximum. It is zero until a value has been added.
func (e *Extremes) Max() float64 { return e.max }

func (e *Extremes) rescan() {
	first := true
	e.window.Each(func(v float64) {
		if first {
			e.min, e.max = v, v
			first = false
			return
		}
		if v < e.min {
			e.min = v
		}
		if v > e.max {
			e.max = v
		}
	})
}
