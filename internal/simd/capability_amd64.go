//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func probeFeatures() features {
	return features{
		hasSSE42: cpu.X86.HasSSE42,
		hasAVX:   cpu.X86.HasAVX,
		// Our 8-lane kernels lean on fused multiply-add, so AVX2 without
		// FMA is treated as plain AVX.
		hasAVX2:     cpu.X86.HasAVX2 && cpu.X86.HasFMA,
		hasAVX512F:  cpu.X86.HasAVX512F,
		hasAVX512BW: cpu.X86.HasAVX512BW,
	}
}
