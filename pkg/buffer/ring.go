// Package buffer provides fixed-capacity generic buffers used for windowed state.
//
// Ring is a FIFO window with drop-oldest overflow: pushing into a full ring
// evicts and returns the oldest element. It is not safe for concurrent use;
// each owner holds its own ring, and wire propagation is already serialized.
package buffer

// Ring is a fixed-capacity FIFO buffer that evicts its oldest element on overflow.
type Ring[T any] struct {
	items []T
	head  int // next write position
	tail  int // oldest element
	size  int
}

// NewRing creates a ring with the given capacity. Capacities below 1 are raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends item. When the ring was full the oldest element is removed and
// returned with evicted set to true.
func (r *Ring[T]) Push(item T) (old T, evicted bool) {
	if r.size == len(r.items) {
		old = r.items[r.tail]
		r.tail = (r.tail + 1) % len(r.items)
		r.size--
		evicted = true
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	r.size++
	return old, evicted
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.items) }

// Each calls fn for every element, oldest first.
func (r *Ring[T]) Each(fn func(T)) {
	for i := 0; i < r.size; i++ {
		fn(r.items[(r.tail+i)%len(r.items)])
	}
}
