// Package ringbuffer provides a bounded FIFO of float64 samples with
// snapshot/advance semantics for overlapping sliding windows.
package ringbuffer

// Buffer is a fixed-capacity FIFO. Pushing past capacity evicts the
// oldest sample, so a slow consumer never blocks a fast producer —
// spec.md §4.7 requires the scheduler to keep pulling from the source
// even while behind, dropping old samples via eviction rather than
// blocking.
type Buffer struct {
	data     []float64
	capacity int
	start    int // index of oldest sample
	count    int
}

// New creates a Buffer with the given capacity. Capacity must be at
// least one window's worth of samples (spec.md §4.2: "capacity >= 2*N").
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]float64, capacity), capacity: capacity}
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	return b.count
}

// Push appends one sample, evicting the oldest if the buffer is full.
func (b *Buffer) Push(v float64) {
	idx := (b.start + b.count) % b.capacity
	b.data[idx] = v
	if b.count < b.capacity {
		b.count++
	} else {
		b.start = (b.start + 1) % b.capacity
	}
}

// SnapshotLast returns a freshly allocated copy of the most recent n
// samples, oldest first, without consuming them. If fewer than n
// samples are available, it returns false and a nil slice.
func (b *Buffer) SnapshotLast(n int) ([]float64, bool) {
	if n <= 0 || n > b.count {
		return nil, false
	}
	out := make([]float64, n)
	firstIdx := (b.start + b.count - n) % b.capacity
	for i := 0; i < n; i++ {
		out[i] = b.data[(firstIdx+i)%b.capacity]
	}
	return out, true
}

// Advance drops the oldest h samples (or all of them, if fewer remain).
func (b *Buffer) Advance(h int) {
	if h < 0 {
		return
	}
	if h > b.count {
		h = b.count
	}
	b.start = (b.start + h) % b.capacity
	b.count -= h
}
