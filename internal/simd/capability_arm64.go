//go:build arm64

package simd

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func probeFeatures() features {
	hasASIMD := cpu.ARM64.HasASIMD
	// macOS does not populate the hwcap bits x/sys/cpu reads, but every
	// Apple Silicon core implements NEON.
	if runtime.GOOS == "darwin" {
		hasASIMD = true
	}
	return features{hasASIMD: hasASIMD}
}
