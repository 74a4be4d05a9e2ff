// Package tuner derives cache-blocking and chunking parameters from the
// identified CPU microarchitecture. The capability profile decides which
// kernel variant runs; the tuner decides how work is shaped around the
// memory hierarchy.
package tuner

import (
	"strings"

	"github.com/hupe1980/numgo/internal/simd"
)

// Tuning holds the per-microarchitecture shape parameters.
type Tuning struct {
	// Family is the matched microarchitecture family name, "generic" when
	// the CPU brand is unknown.
	Family string

	// CacheLine is the cache line size in bytes, taken from the
	// capability profile.
	CacheLine int

	// PrefetchDistance is how many bytes ahead of the stream the hardware
	// prefetchers keep up with comfortably.
	PrefetchDistance int

	// UnrollFactor is the preferred loop unroll depth.
	UnrollFactor int

	// BlockCols is the column panel width for the blocked matrix
	// multiply, in elements.
	BlockCols int

	// ChunkLines is the scheduler chunk size in cache lines.
	ChunkLines int
}

// family ties a brand-string fragment to its tuning parameters. Entries are
// matched in order, first hit wins, so newer generations come first.
type family struct {
	match            string
	prefetchDistance int
	unrollFactor     int
	blockCols        int
	chunkLines       int
}

var families = []family{
	// Intel client, newest first.
	{"alder lake", 128, 8, 4096, 512},
	{"raptor lake", 128, 8, 4096, 512},
	{"rocket lake", 128, 8, 4096, 512},
	{"tiger lake", 128, 8, 4096, 512},
	{"ice lake", 128, 8, 4096, 512},
	{"skylake", 128, 8, 2048, 256},
	{"kaby lake", 128, 8, 2048, 256},
	{"coffee lake", 128, 8, 2048, 256},
	{"broadwell", 128, 4, 2048, 256},
	{"haswell", 128, 4, 2048, 256},
	{"ivy bridge", 64, 4, 1024, 128},
	{"sandy bridge", 64, 4, 1024, 128},
	// Intel server.
	{"cascade lake", 128, 8, 4096, 512},
	{"cooper lake", 128, 8, 4096, 512},
	{"xeon", 128, 8, 2048, 256},
	// AMD.
	{"zen 4", 256, 8, 4096, 512},
	{"zen 3", 256, 8, 4096, 512},
	{"zen 2", 128, 8, 2048, 256},
	{"epyc", 256, 8, 4096, 512},
	// "ryzen" contains "zen", so it has to match first.
	{"ryzen", 128, 8, 2048, 256},
	{"zen", 128, 4, 2048, 256},
	// ARM.
	{"apple m", 256, 8, 4096, 512},
	{"neoverse", 256, 8, 4096, 512},
	{"cortex-a7", 128, 4, 2048, 256},
	{"cortex", 64, 4, 1024, 128},
	// Vendor-level fallbacks.
	{"intel", 64, 4, 2048, 256},
	{"amd", 128, 4, 2048, 256},
	{"apple", 128, 8, 2048, 256},
}

// generic is the conservative fallback for CPUs nothing matched.
var generic = family{"generic", 64, 4, 1024, 128}

// Lookup returns the tuning for the profile's CPU. Matching is by
// case-insensitive substring over brand then vendor, the way the brand
// strings are reported ("AMD Ryzen 9 5950X", "Apple M2", ...).
func Lookup(p simd.Profile) Tuning {
	brand := strings.ToLower(p.Brand)
	vendor := strings.ToLower(p.Vendor)

	matched := generic
	name := generic.match

	for _, f := range families {
		if strings.Contains(brand, f.match) || strings.Contains(vendor, f.match) {
			matched = f
			name = f.match
			break
		}
	}

	cacheLine := p.CacheLine
	if cacheLine <= 0 {
		cacheLine = 64
	}

	return Tuning{
		Family:           name,
		CacheLine:        cacheLine,
		PrefetchDistance: matched.prefetchDistance,
		UnrollFactor:     matched.unrollFactor,
		BlockCols:        matched.blockCols,
		ChunkLines:       matched.chunkLines,
	}
}
