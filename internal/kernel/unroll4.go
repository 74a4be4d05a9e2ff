package kernel

// 4-lane variants (128-bit registers: SSE4.2, NEON).

func addW4(dst, a, b []float32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0] + b[i+0]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] + b[i]
	}
}

func mulW4(dst, a, b []float32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0] * b[i+0]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * b[i]
	}
}

func scaleW4(dst, a []float32, s float32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0] * s
		dst[i+1] = a[i+1] * s
		dst[i+2] = a[i+2] * s
		dst[i+3] = a[i+3] * s
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * s
	}
}

func fmaW4(dst, a, b, c []float32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0]*b[i+0] + c[i+0]
		dst[i+1] = a[i+1]*b[i+1] + c[i+1]
		dst[i+2] = a[i+2]*b[i+2] + c[i+2]
		dst[i+3] = a[i+3]*b[i+3] + c[i+3]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i]*b[i] + c[i]
	}
}

func axpyW4(dst, b []float32, s float32) {
	i := 0
	for ; i+4 <= len(b); i += 4 {
		dst[i+0] += s * b[i+0]
		dst[i+1] += s * b[i+1]
		dst[i+2] += s * b[i+2]
		dst[i+3] += s * b[i+3]
	}
	for ; i < len(b); i++ {
		dst[i] += s * b[i]
	}
}

// dotW4 keeps four independent accumulators to break the add dependency
// chain, then folds them in a fixed order before the scalar remainder.
func dotW4(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += a[i+0] * b[i+0]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	sum := (s0 + s1) + (s2 + s3)
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func and32W4(dst, a, b []int32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0] & b[i+0]
		dst[i+1] = a[i+1] & b[i+1]
		dst[i+2] = a[i+2] & b[i+2]
		dst[i+3] = a[i+3] & b[i+3]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] & b[i]
	}
}

func or32W4(dst, a, b []int32) {
	i := 0
	for ; i+4 <= len(a); i += 4 {
		dst[i+0] = a[i+0] | b[i+0]
		dst[i+1] = a[i+1] | b[i+1]
		dst[i+2] = a[i+2] | b[i+2]
		dst[i+3] = a[i+3] | b[i+3]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] | b[i]
	}
}
