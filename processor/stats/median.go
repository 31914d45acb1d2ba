package stats

import (
	"sort"

	"github.com/c360/wirestreams/pkg/buffer"
)

// Median is a running median over the last N values.
//
// Whether the two middle elements are averaged is decided by the window's
// nominal size, not by how many values it currently holds. While a window
// of even size is still filling with an odd count, the result is the mean
// of the two elements around the middle rather than the true median; an odd
// window holding an even count returns the upper middle element.
type Median struct {
	window *buffer.Ring[float64]
	sorted []float64
}

// NewMedian creates a running median over a window of size values.
func NewMedian(size int) *Median {
	w := buffer.NewRing[float64](size)
	return &Median{window: w, sorted: make([]float64, 0, w.Cap())}
}

// Add pushes x and returns the median of the current window.
func (m *Median) Add(x float64) float64 {
	m.window.Push(x)

	m.sorted = m.sorted[:0]
	m.window.Each(func(v float64) { m.sorted = append(m.sorted, v) })
	sort.Float64s(m.sorted)

	mid := len(m.sorted) / 2
	if m.window.Cap()%2 == 0 && len(m.sorted) > 1 {
		return (m.sorted[mid-1] + m.sorted[mid]) / 2
	}
	return m.sorted[mid]
}

// Len returns the number of values in the window.
func (m *Median) Len() int { return m.window.Len() }
