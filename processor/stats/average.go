package stats

import "github.com/c360/wirestreams/pkg/buffer"

// Average is a running mean over the last N values.
type Average struct {
	window *buffer.Ring[float64]
	sum    float64
}

// NewAverage creates a running average over a window of size values.
func NewAverage(size int) *Average {
	return &Average{window: buffer.NewRing[float64](size)}
}

// Add pushes x and returns the mean of the current window. Before the window
// fills up the mean is taken over the values seen so far.
func (a *Average) Add(x float64) float64 {
	if old, evicted := a.window.Push(x); evicted {
		a.sum -= old
	}
	a.sum += x
	return a.sum / float64(a.window.Len())
}

// Len returns the number of values in the window.
func (a *Average) Len() int { return a.window.Len() }
