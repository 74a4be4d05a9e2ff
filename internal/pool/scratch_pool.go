// Package pool provides reusable scratch buffers for compute and IO paths.
// Uses sync.Pool for automatic memory reuse so hot paths such as snapshot
// block staging and reduction partials do not allocate per call.
package pool

import "sync"

const (
	// DefaultFloatCapacity is the initial capacity of the float32 scratch
	// buffer, sized for a typical vector operand.
	DefaultFloatCapacity = 4096

	// DefaultByteCapacity is the initial capacity of the byte scratch
	// buffer, sized for a typical compressed snapshot block.
	DefaultByteCapacity = 64 << 10

	// MaxRetainedBytes is the largest byte buffer returned to the pool.
	// Oversized buffers are dropped so one huge block cannot pin memory.
	MaxRetainedBytes = 8 << 20
)

// Scratch contains pre-allocated buffers reusable across operations.
type Scratch struct {
	f32 []float32
	buf []byte
}

// scratchPool is the global pool of Scratch objects.
var scratchPool = sync.Pool{
	New: func() interface{} {
		return &Scratch{
			f32: make([]float32, 0, DefaultFloatCapacity),
			buf: make([]byte, 0, DefaultByteCapacity),
		}
	},
}

// Get retrieves a Scratch from the pool.
func Get() *Scratch {
	s := scratchPool.Get().(*Scratch)
	s.Reset()
	return s
}

// Put returns a Scratch to the pool for reuse.
func Put(s *Scratch) {
	if s == nil {
		return
	}
	if cap(s.buf) > MaxRetainedBytes {
		s.buf = make([]byte, 0, DefaultByteCapacity)
	}
	if cap(s.f32)*4 > MaxRetainedBytes {
		s.f32 = make([]float32, 0, DefaultFloatCapacity)
	}
	scratchPool.Put(s)
}

// Reset clears the Scratch for reuse. Capacities are preserved.
func (s *Scratch) Reset() {
	s.f32 = s.f32[:0]
	s.buf = s.buf[:0]
}

// Floats returns a float32 slice of length n, growing the underlying
// buffer when needed. Contents are not zeroed.
func (s *Scratch) Floats(n int) []float32 {
	if cap(s.f32) < n {
		s.f32 = make([]float32, n)
	}
	s.f32 = s.f32[:n]
	return s.f32
}

// Bytes returns a byte slice of length n, growing the underlying buffer
// when needed. Contents are not zeroed.
func (s *Scratch) Bytes(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	s.buf = s.buf[:n]
	return s.buf
}

// ScratchStats returns statistics about a Scratch.
type ScratchStats struct {
	FloatCap int
	ByteCap  int
}

// Stats returns current buffer capacities of this Scratch.
func (s *Scratch) Stats() ScratchStats {
	return ScratchStats{
		FloatCap: cap(s.f32),
		ByteCap:  cap(s.buf),
	}
}
