package simd

import (
	"os"
	"runtime"
	"strings"
	"sync"
)

// ISA represents a SIMD instruction set architecture.
//
// Values are ordered by vector width so that a higher value always means
// wider registers. NEON sits between SSE4.2 and AVX: it shares the 128-bit
// width with SSE4.2 but belongs to a different architecture and is never
// compared against the x86 levels during selection.
type ISA uint8

const (
	// Baseline represents the portable scalar implementation (no SIMD).
	Baseline ISA = iota
	// SSE42 represents x86-64 SSE4.2 (128-bit SIMD).
	SSE42
	// NEON represents ARM64 NEON (128-bit SIMD, ASIMD).
	NEON
	// AVX represents x86-64 AVX (256-bit SIMD, float only).
	AVX
	// AVX2 represents x86-64 AVX2 with FMA (256-bit SIMD).
	AVX2
	// AVX512 represents x86-64 AVX-512 (512-bit SIMD).
	AVX512
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Baseline:
		return "baseline"
	case SSE42:
		return "sse4.2"
	case NEON:
		return "neon"
	case AVX:
		return "avx"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "baseline", "scalar", "generic":
		return Baseline, true
	case "sse4.2", "sse42", "sse4_2":
		return SSE42, true
	case "neon", "asimd":
		return NEON, true
	case "avx":
		return AVX, true
	case "avx2":
		return AVX2, true
	case "avx512", "avx-512":
		return AVX512, true
	default:
		return Baseline, false
	}
}

// VectorBits returns the register width of the ISA in bits.
func (i ISA) VectorBits() int {
	switch i {
	case AVX512:
		return 512
	case AVX2, AVX:
		return 256
	case SSE42, NEON:
		return 128
	default:
		return 64
	}
}

// Lanes returns the number of float32 lanes per vector register.
// Baseline reports 1 (scalar).
func (i ISA) Lanes() int {
	if i == Baseline {
		return 1
	}
	return i.VectorBits() / 32
}

// Alignment returns the byte boundary buffers should be aligned to for
// full-speed loads on this ISA.
func (i ISA) Alignment() int {
	switch i {
	case AVX512:
		return 64
	case AVX2, AVX:
		return 32
	case SSE42, NEON:
		return 16
	default:
		return 8
	}
}

// features holds the raw per-architecture capability bits filled in by the
// platform-specific probe.
type features struct {
	hasSSE42    bool // x86-64 SSE4.2
	hasAVX      bool // x86-64 AVX
	hasAVX2     bool // x86-64 AVX2 + FMA
	hasAVX512F  bool // x86-64 AVX-512 Foundation
	hasAVX512BW bool // x86-64 AVX-512 Byte/Word
	hasASIMD    bool // ARM64 NEON
}

// Profile is the immutable result of capability detection. It is computed
// once per process and is safe to share across goroutines without
// synchronization.
type Profile struct {
	// ISA is the selected instruction set.
	ISA ISA

	// Overridden is true when NUMGO_SIMD forced the selection.
	Overridden bool

	// CacheLine is the detected cache line size in bytes (64 if unknown).
	CacheLine int

	// Cores is the number of logical cores.
	Cores int

	// Vendor and Brand identify the CPU for diagnostics. Either may be
	// empty on platforms where the information is unavailable.
	Vendor string
	Brand  string

	// Raw capability bits, kept for diagnostics even when an override
	// selected a lower ISA.
	HasSSE42  bool
	HasAVX    bool
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
}

var (
	detectOnce sync.Once
	profile    Profile

	// forced, when non-nil, replaces detection entirely. Test hook.
	forcedMu sync.Mutex
	forced   *Profile
)

// Detect returns the capability profile of the host CPU. The first call
// performs the probe; subsequent calls return the cached profile. Detect
// never panics: anything that cannot be probed reads as unsupported and
// selection steps down, terminating at Baseline.
func Detect() Profile {
	forcedMu.Lock()
	if forced != nil {
		p := *forced
		forcedMu.Unlock()
		return p
	}
	forcedMu.Unlock()

	detectOnce.Do(func() {
		profile = detectProfile()
	})
	return profile
}

func detectProfile() Profile {
	f := probeFeatures()
	cacheLine, cores, vendor, brand := hostInfo()

	p := Profile{
		CacheLine: cacheLine,
		Cores:     cores,
		Vendor:    vendor,
		Brand:     brand,
		HasSSE42:  f.hasSSE42,
		HasAVX:    f.hasAVX,
		HasAVX2:   f.hasAVX2,
		HasAVX512: f.hasAVX512F && f.hasAVX512BW,
		HasNEON:   f.hasASIMD,
	}

	if override := os.Getenv("NUMGO_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok && isAvailable(isa, f) {
			p.ISA = isa
			p.Overridden = true
			return p
		}
		// Unknown or unsupported override: fall through to auto-detection.
	}

	p.ISA = selectBest(f)
	return p
}

// isAvailable reports whether the CPU can execute the given ISA.
func isAvailable(isa ISA, f features) bool {
	switch isa {
	case Baseline:
		return true
	case SSE42:
		return f.hasSSE42
	case NEON:
		return f.hasASIMD
	case AVX:
		return f.hasAVX
	case AVX2:
		return f.hasAVX2
	case AVX512:
		return f.hasAVX512F && f.hasAVX512BW
	default:
		return false
	}
}

// selectBest chooses the widest ISA the current platform supports.
func selectBest(f features) ISA {
	switch runtime.GOARCH {
	case "amd64":
		return selectBestAMD64(f)
	case "arm64":
		return selectBestARM64(f)
	default:
		return Baseline
	}
}

func selectBestAMD64(f features) ISA {
	// AVX-512 requires both Foundation and BW for our kernels.
	switch {
	case f.hasAVX512F && f.hasAVX512BW:
		return AVX512
	case f.hasAVX2:
		return AVX2
	case f.hasAVX:
		return AVX
	case f.hasSSE42:
		return SSE42
	default:
		return Baseline
	}
}

func selectBestARM64(f features) ISA {
	if f.hasASIMD {
		return NEON
	}
	return Baseline
}

// SetForced replaces the detected profile with a synthetic one built around
// the given ISA. The synthetic profile looks like a genuine detection result
// (Overridden stays false) and bypasses availability checks so tests can
// exercise any variant, or simulate an unknown CPU, on any host. Call
// ResetDetection to restore real detection.
func SetForced(isa ISA) {
	forcedMu.Lock()
	defer forcedMu.Unlock()

	cacheLine, cores, vendor, brand := hostInfo()
	forced = &Profile{
		ISA:       isa,
		CacheLine: cacheLine,
		Cores:     cores,
		Vendor:    vendor,
		Brand:     brand,
	}
}

// ResetDetection clears a forced profile set by SetForced and re-arms the
// lazy probe so the next Detect call re-reads the environment. Test hook,
// not safe to call concurrently with Detect.
func ResetDetection() {
	forcedMu.Lock()
	defer forcedMu.Unlock()
	forced = nil
	detectOnce = sync.Once{}
}
