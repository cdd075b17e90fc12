// Package history keeps the rolling score samples shown as a trend line.
package history

// DefaultSize is the number of score samples retained. It is also the
// largest capacity a buffer may have.
const DefaultSize = 200

// Buffer is a fixed-capacity FIFO of float64 samples backed by a ring.
// Appending past capacity evicts the oldest sample. Buffer is not safe for
// concurrent use; the client only touches it from the event loop.
type Buffer struct {
	data  []float64
	head  int // next write position
	count int
	size  int
}

// New creates a buffer holding at most size samples.
// A non-positive size falls back to DefaultSize; larger sizes are capped at it.
func New(size int) *Buffer {
	if size <= 0 || size > DefaultSize {
		size = DefaultSize
	}
	return &Buffer{
		data: make([]float64, size),
		size: size,
	}
}

// Append pushes a sample to the tail, evicting from the head once full.
func (b *Buffer) Append(v float64) {
	b.data[b.head] = v
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Values returns the retained samples oldest-first.
// The slice is a copy; later appends do not change it.
func (b *Buffer) Values() []float64 {
	return b.lastN(b.count)
}

// Last returns the newest sample and whether one exists.
func (b *Buffer) Last() (float64, bool) {
	if b.count == 0 {
		return 0, false
	}
	return b.data[(b.head-1+b.size)%b.size], true
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.size
}

func (b *Buffer) lastN(n int) []float64 {
	if n <= 0 || b.count == 0 {
		return []float64{}
	}
	if n > b.count {
		n = b.count
	}

	out := make([]float64, n)
	// head is the next write slot, so the newest value sits at head-1
	start := (b.head - n + b.size) % b.size
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%b.size]
	}
	return out
}
