package numgo

import (
	"github.com/hupe1980/numgo/internal/simd"
	"github.com/hupe1980/numgo/internal/tuner"
)

// DeviceInfo describes the host CPU and the kernels bound to it.
type DeviceInfo struct {
	// ISA is the instruction set the kernels actually use. It can be
	// narrower than Detected when acceleration is disabled or a kernel
	// set is not built for this platform.
	ISA string

	// Detected is the widest instruction set the host supports.
	Detected string

	// Overridden reports whether the NUMGO_SIMD environment variable
	// forced the detected instruction set.
	Overridden bool

	VectorBits int // SIMD register width in bits
	Lanes      int // float32 elements per vector operation
	Alignment  int // buffer alignment in bytes

	Vendor    string
	Brand     string
	Family    string // microarchitecture family used for tuning
	Cores     int    // logical cores
	CacheLine int    // bytes

	// Workers is the scheduler's worker bound for this router.
	Workers int

	// RecommendedThreads is the parallelism sweet spot measured for this
	// instruction set class; narrow sets gain little from extra threads.
	RecommendedThreads int

	// Rating is a coarse 0-100 throughput score for the bound kernels.
	Rating int
}

// levelProfile carries per-ISA scheduling defaults distilled from
// benchmarking across instruction set classes.
type levelProfile struct {
	threads int
	rating  int
}

var levelProfiles = map[simd.ISA]levelProfile{
	simd.AVX512:   {threads: 8, rating: 100},
	simd.AVX2:     {threads: 4, rating: 80},
	simd.AVX:      {threads: 2, rating: 70},
	simd.SSE42:    {threads: 2, rating: 60},
	simd.NEON:     {threads: 4, rating: 75},
	simd.Baseline: {threads: 1, rating: 40},
}

func buildDeviceInfo(p simd.Profile, effective simd.ISA, workers int, t tuner.Tuning) DeviceInfo {
	lp := levelProfiles[effective]
	return DeviceInfo{
		ISA:                effective.String(),
		Detected:           p.ISA.String(),
		Overridden:         p.Overridden,
		VectorBits:         effective.VectorBits(),
		Lanes:              effective.Lanes(),
		Alignment:          effective.Alignment(),
		Vendor:             p.Vendor,
		Brand:              p.Brand,
		Family:             t.Family,
		Cores:              p.Cores,
		CacheLine:          t.CacheLine,
		Workers:            workers,
		RecommendedThreads: lp.threads,
		Rating:             lp.rating,
	}
}
