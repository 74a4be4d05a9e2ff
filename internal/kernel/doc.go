// Package kernel implements the numeric primitives behind numgo.
//
// # Variants
//
// Every primitive has a scalar baseline plus unrolled variants written for
// the lane widths of the supported instruction sets: 4 lanes (SSE4.2/NEON),
// 8 lanes (AVX/AVX2) and 16 lanes (AVX-512). Each variant processes
// n - (n mod W) elements in W-wide blocks and finishes the remaining
// n mod W elements with the identical scalar formula.
//
// Elementwise variants are bit-for-bit identical to the baseline.
// Reductions keep a fixed per-variant accumulation order and stay within
// 1e-5 relative error of the baseline.
//
// # Dispatch
//
// Variant sets self-register from architecture-gated init functions.
// Select returns an independent handle on the widest registered set not
// exceeding a requested instruction set, so callers with different
// requests coexist in one process; Bind additionally points the
// package-level functions at the selected set. Build with -tags noasm to
// compile the accelerated sets out entirely, leaving the baseline.
package kernel
