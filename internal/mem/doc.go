// Package mem provides alignment-aware memory allocation.
//
// Buffers are over-allocated by the requested alignment and the caller
// receives a view starting at the first aligned address; the Go runtime
// keeps the underlying array alive through the view, so callers never touch
// raw pointers. Alignment values follow the instruction-set requirements:
// 64 bytes for AVX-512, 32 for AVX/AVX2, 16 for SSE4.2/NEON, 8 as the safe
// minimum for the scalar baseline.
package mem
