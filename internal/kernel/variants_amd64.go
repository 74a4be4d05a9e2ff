//go:build amd64 && !noasm

package kernel

import "github.com/hupe1980/numgo/internal/simd"

func init() {
	register(&set{
		isa:   simd.SSE42,
		add:   addW4,
		mul:   mulW4,
		scale: scaleW4,
		fma:   fmaW4,
		axpy:  axpyW4,
		dot:   dotW4,
		and32: and32W4,
		or32:  or32W4,
	})

	// AVX widens float lanes to 8 but integer ops stay 128-bit until AVX2.
	register(&set{
		isa:   simd.AVX,
		add:   addW8,
		mul:   mulW8,
		scale: scaleW8,
		fma:   fmaW8,
		axpy:  axpyW8,
		dot:   dotW8,
		and32: and32W4,
		or32:  or32W4,
	})

	register(&set{
		isa:   simd.AVX2,
		add:   addW8,
		mul:   mulW8,
		scale: scaleW8,
		fma:   fmaW8,
		axpy:  axpyW8,
		dot:   dotW8,
		and32: and32W8,
		or32:  or32W8,
	})

	register(&set{
		isa:   simd.AVX512,
		add:   addW16,
		mul:   mulW16,
		scale: scaleW16,
		fma:   fmaW16,
		axpy:  axpyW16,
		dot:   dotW16,
		and32: and32W16,
		or32:  or32W16,
	})
}
