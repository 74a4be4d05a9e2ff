package simd

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// defaultCacheLine is assumed when the CPU does not report a cache line
// size. 64 bytes holds for every x86-64 part and most ARM64 designs.
const defaultCacheLine = 64

// hostInfo returns cache geometry and identity of the host CPU with safe
// defaults for anything the platform does not report.
func hostInfo() (cacheLine, cores int, vendor, brand string) {
	cacheLine = cpuid.CPU.CacheLine
	if cacheLine <= 0 {
		cacheLine = defaultCacheLine
	}

	cores = cpuid.CPU.LogicalCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}

	return cacheLine, cores, cpuid.CPU.VendorString, cpuid.CPU.BrandName
}
