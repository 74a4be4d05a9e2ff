//go:build arm64 && !noasm

package kernel

import "github.com/hupe1980/numgo/internal/simd"

func init() {
	register(&set{
		isa:   simd.NEON,
		add:   addW4,
		mul:   mulW4,
		scale: scaleW4,
		fma:   fmaW4,
		axpy:  axpyW4,
		dot:   dotW4,
		and32: and32W4,
		or32:  or32W4,
	})
}
