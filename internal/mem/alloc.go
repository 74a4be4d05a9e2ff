package mem

import (
	"unsafe"
)

const (
	// MinAlignment is the safe minimum boundary for the scalar baseline.
	MinAlignment = 8
	// MaxAlignment is the boundary required by AVX-512.
	MaxAlignment = 64
)

// ValidAlignment reports whether align is a power of two in the supported
// range.
func ValidAlignment(align int) bool {
	return align >= MinAlignment && align <= MaxAlignment && align&(align-1) == 0
}

// AllocAligned allocates a byte slice of the given size whose first element
// sits at an address divisible by align.
//
// The function over-allocates by align bytes and returns the view at the
// first aligned offset; the underlying array is kept alive by the returned
// slice. align must satisfy ValidAlignment; anything else is a programming
// error and panics.
func AllocAligned(size, align int) []byte {
	if !ValidAlignment(align) {
		panic("mem: alignment must be a power of two between 8 and 64")
	}
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+align)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1)

	return buf[offset : offset+uintptr(size)]
}

// AllocAlignedFloat32 allocates a float32 slice of n elements aligned to
// the given byte boundary.
func AllocAlignedFloat32(n, align int) []float32 {
	if n <= 0 {
		return nil
	}

	byteSlice := AllocAligned(n*4, align)

	// Safe: the buffer is at least 4-byte aligned for any supported
	// alignment value.
	ptr := unsafe.Pointer(&byteSlice[0])    //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*float32)(ptr), n) //nolint:gosec // unsafe is required for memory alignment
}

// AllocAlignedInt32 allocates an int32 slice of n elements aligned to the
// given byte boundary.
func AllocAlignedInt32(n, align int) []int32 {
	if n <= 0 {
		return nil
	}

	byteSlice := AllocAligned(n*4, align)

	ptr := unsafe.Pointer(&byteSlice[0])  //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*int32)(ptr), n) //nolint:gosec // unsafe is required for memory alignment
}

// IsAligned reports whether the first element of b sits on the given byte
// boundary. Empty slices are trivially aligned.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return true
	}
	return isAlignedPtr(unsafe.Pointer(&b[0]), align)
}

// IsAlignedFloat32 reports whether the first element of f sits on the given
// byte boundary.
func IsAlignedFloat32(f []float32, align int) bool {
	if len(f) == 0 {
		return true
	}
	return isAlignedPtr(unsafe.Pointer(&f[0]), align)
}

// IsAlignedInt32 reports whether the first element of v sits on the given
// byte boundary.
func IsAlignedInt32(v []int32, align int) bool {
	if len(v) == 0 {
		return true
	}
	return isAlignedPtr(unsafe.Pointer(&v[0]), align)
}

func isAlignedPtr(p unsafe.Pointer, align int) bool {
	if align <= 1 {
		return true
	}
	return uintptr(p)&uintptr(align-1) == 0
}

// AlignFloat32s copies src into a freshly allocated aligned buffer. Use it
// when the origin of the data cannot be controlled. Values are never
// changed by alignment.
func AlignFloat32s(src []float32, align int) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := AllocAlignedFloat32(len(src), align)
	copy(dst, src)
	return dst
}

// AlignInt32s copies src into a freshly allocated aligned buffer.
func AlignInt32s(src []int32, align int) []int32 {
	if len(src) == 0 {
		return nil
	}
	dst := AllocAlignedInt32(len(src), align)
	copy(dst, src)
	return dst
}
