//go:build !amd64 && !arm64

package simd

// probeFeatures reports no capabilities on architectures without a kernel
// variant set; selection lands on Baseline.
func probeFeatures() features {
	return features{}
}
