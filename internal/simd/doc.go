// Package simd detects the SIMD capabilities of the host CPU.
//
// # Supported Platforms
//
//   - x86-64: AVX-512, AVX2, AVX, SSE4.2
//   - ARM64: NEON
//
// Detection runs once per process and produces an immutable Profile that
// callers cache and share freely. Build with -tags noasm to keep detection
// available while the accelerated kernel sets are compiled out.
//
// # Override
//
// Set NUMGO_SIMD to an ISA name ("avx2", "neon", "baseline", ...) to force a
// level. Forcing a level the CPU does not support falls back to
// auto-detection; detection itself never fails and never panics.
package simd
