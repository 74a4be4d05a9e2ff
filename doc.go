// Package numgo provides a runtime-adaptive compute layer for dense
// float32 matrices and vectors on the CPU.
//
// Numgo picks the widest SIMD kernels the host supports at runtime and
// partitions large operations across a bounded worker pool, with
// production-ready features including:
//
//   - Runtime capability detection: AVX-512, AVX2, AVX, SSE4.2 on x86-64,
//     NEON on ARM64, with a portable scalar baseline everywhere
//   - Per-operation kernel variants selected once and dispatched through
//     a single indirect call
//   - Deterministic results: elementwise operations are bit-identical
//     across variants and worker counts; reductions use a fixed fold order
//   - Alignment-aware allocation (64-byte boundaries) for full-speed
//     vector loads
//   - Cache-line-derived work partitioning with dynamic chunk pulling
//   - Optional memory budgets and IO rate limits via the resource package
//   - Matrix snapshots with LZ4/ZSTD block compression
//   - Structured logging (slog) and pluggable metrics collection
//
// # Quick Start
//
//	ctx := context.Background()
//	ng, err := numgo.New()
//	if err != nil {
//	    panic(err)
//	}
//	defer ng.Close()
//
//	a, _ := numgo.NewMatrixFrom(2, 3, []float32{1, 2, 3, 4, 5, 6})
//	b, _ := numgo.NewMatrixFrom(3, 2, []float32{7, 8, 9, 10, 11, 12})
//
//	c, err := ng.MatMul(ctx, a, b)
//	if err != nil {
//	    panic(err)
//	}
//	fmt.Println(c.At(0, 0))
//
// # Instruction Set Selection
//
// The first operation on a Router triggers capability detection and binds
// the kernel set; every later operation reuses that binding. Selection
// can be steered without recompiling:
//
//	ng, _ := numgo.New(numgo.WithISA("avx2"))          // prefer AVX2
//	ng, _ := numgo.New(numgo.WithAccelerationDisabled()) // scalar only
//
// The NUMGO_SIMD environment variable overrides detection the same way,
// and is ignored when it names an instruction set the host cannot run.
// Each router binds its own kernel set, so differently configured routers
// coexist in one process (an accelerated one and a scalar reference one,
// for instance).
//
// # Determinism
//
// Elementwise operations (add, hadamard, scale, fma) produce bit-identical
// results on every variant and for every worker count. Reductions (dot)
// fold partial sums in ascending chunk order, so repeated runs and
// different worker counts produce identical bits for the same input; the
// scalar baseline may differ from vector variants by at most 1e-5
// relative error.
//
// # Resource Limits
//
//	ng, _ := numgo.New(
//	    numgo.WithMemoryLimit(1 << 30),   // reject allocations past 1 GiB
//	    numgo.WithIORateLimit(64 << 20),  // cap snapshot IO at 64 MiB/s
//	)
//
// Allocations beyond the budget fail with ErrAllocation; call
// Matrix.Release to return a matrix's bytes to the budget.
package numgo
