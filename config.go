package numgo

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
)

// Config mirrors the on-disk JSON tuning file. It controls which kernels
// are bound and how work is scheduled, without recompiling.
//
// Precedence: defaults, then config file, then explicit options, then the
// NUMGO_SIMD environment variable for the instruction set itself.
type Config struct {
	// Enabled gates all accelerated kernels. When false, every operation
	// runs on the baseline scalar kernels.
	Enabled bool `json:"enabled"`

	// AutoDetect selects the widest available instruction set at first
	// use. When false, PreferredISA is tried instead.
	AutoDetect bool `json:"auto_detect"`

	// PreferredISA names the instruction set to bind when AutoDetect is
	// off (e.g. "avx2", "neon"). Ignored when empty.
	PreferredISA string `json:"preferred_isa"`

	// FallbackOrder lists instruction sets to try, widest first, when the
	// preferred one is unavailable. The first available entry wins.
	FallbackOrder []string `json:"fallback_order"`

	// Workers bounds the scheduler's goroutines. 0 means logical cores.
	Workers int `json:"workers"`

	// ParallelThreshold is the work size (elements, or multiply-adds for
	// matmul) below which operations run inline on the calling goroutine.
	ParallelThreshold int `json:"parallel_threshold"`

	// Compression names the snapshot payload compression ("none", "lz4",
	// "zstd").
	Compression string `json:"compression"`
}

// DefaultConfig returns the configuration used when no file or options
// override it.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		AutoDetect:        true,
		PreferredISA:      "",
		FallbackOrder:     []string{"avx512", "avx2", "avx", "sse42", "neon", "baseline"},
		Workers:           0,
		ParallelThreshold: 32768,
		Compression:       "zstd",
	}
}

// LoadConfig reads a Config from a JSON file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := gojson.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the Config to a JSON file, indented for hand editing.
func (c Config) Save(path string) error {
	data, err := gojson.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
