package stats

import (
	"cmp"

	"github.com/google/btree"

	"github.com/c360/wirestreams/pkg/buffer"
)

type valueCount[T cmp.Ordered] struct {
	value T
	count int
}

// Extremum tracks the minimum and maximum of the last N values of any ordered
// type. It keeps a count per distinct value in a B-tree, so Min and Max cost
// O(log d) for d distinct values in the window, with no rescans.
type Extremum[T cmp.Ordered] struct {
	window *buffer.Ring[T]
	counts *btree.BTreeG[valueCount[T]]
}

// NewExtremum creates a tracker over a window of size values.
func NewExtremum[T cmp.Ordered](size int) *Extremum[T] {
	return &Extremum[T]{
		window: buffer.NewRing[T](size),
		counts: btree.NewG[valueCount[T]](8, func(a, b valueCount[T]) bool { return cmp.Less(a.value, b.value) }),
	}
}

// Add pushes x, evicting the oldest value when the window is full.
func (e *Extremum[T]) Add(x T) {
	e.increment(x)
	if old, evicted := e.window.Push(x); evicted {
		e.decrement(old)
	}
}

// Min returns the smallest value in the window.
func (e *Extremum[T]) Min() (T, bool) {
	vc, ok := e.counts.Min()
	return vc.value, ok
}

// Max returns the largest value in the window.
func (e *Extremum[T]) Max() (T, bool) {
	vc, ok := e.counts.Max()
	return vc.value, ok
}

// Distinct returns the number of distinct values in the window.
func (e *Extremum[T]) Distinct() int { return e.counts.Len() }

// Len returns the number of values in the window.
func (e *Extremum[T]) Len() int { return e.window.Len() }

func (e *Extremum[T]) increment(x T) {
	vc, ok := e.counts.Get(valueCount[T]{value: x})
	if !ok {
		vc = valueCount[T]{value: x}
	}
	vc.count++
	e.counts.ReplaceOrInsert(vc)
}

func (e *Extremum[T]) decrement(x T) {
	vc, ok := e.counts.Get(valueCount[T]{value: x})
	if !ok {
		return
	}
	if vc.count <= 1 {
		e.counts.Delete(vc)
		return
	}
	vc.count--
	e.counts.ReplaceOrInsert(vc)
}
