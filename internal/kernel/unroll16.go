package kernel

// 16-lane variants (512-bit registers: AVX-512).

func addW16(dst, a, b []float32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0] + b[i+0]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
		dst[i+4] = a[i+4] + b[i+4]
		dst[i+5] = a[i+5] + b[i+5]
		dst[i+6] = a[i+6] + b[i+6]
		dst[i+7] = a[i+7] + b[i+7]
		dst[i+8] = a[i+8] + b[i+8]
		dst[i+9] = a[i+9] + b[i+9]
		dst[i+10] = a[i+10] + b[i+10]
		dst[i+11] = a[i+11] + b[i+11]
		dst[i+12] = a[i+12] + b[i+12]
		dst[i+13] = a[i+13] + b[i+13]
		dst[i+14] = a[i+14] + b[i+14]
		dst[i+15] = a[i+15] + b[i+15]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] + b[i]
	}
}

func mulW16(dst, a, b []float32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0] * b[i+0]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
		dst[i+4] = a[i+4] * b[i+4]
		dst[i+5] = a[i+5] * b[i+5]
		dst[i+6] = a[i+6] * b[i+6]
		dst[i+7] = a[i+7] * b[i+7]
		dst[i+8] = a[i+8] * b[i+8]
		dst[i+9] = a[i+9] * b[i+9]
		dst[i+10] = a[i+10] * b[i+10]
		dst[i+11] = a[i+11] * b[i+11]
		dst[i+12] = a[i+12] * b[i+12]
		dst[i+13] = a[i+13] * b[i+13]
		dst[i+14] = a[i+14] * b[i+14]
		dst[i+15] = a[i+15] * b[i+15]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * b[i]
	}
}

func scaleW16(dst, a []float32, s float32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0] * s
		dst[i+1] = a[i+1] * s
		dst[i+2] = a[i+2] * s
		dst[i+3] = a[i+3] * s
		dst[i+4] = a[i+4] * s
		dst[i+5] = a[i+5] * s
		dst[i+6] = a[i+6] * s
		dst[i+7] = a[i+7] * s
		dst[i+8] = a[i+8] * s
		dst[i+9] = a[i+9] * s
		dst[i+10] = a[i+10] * s
		dst[i+11] = a[i+11] * s
		dst[i+12] = a[i+12] * s
		dst[i+13] = a[i+13] * s
		dst[i+14] = a[i+14] * s
		dst[i+15] = a[i+15] * s
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * s
	}
}

func fmaW16(dst, a, b, c []float32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0]*b[i+0] + c[i+0]
		dst[i+1] = a[i+1]*b[i+1] + c[i+1]
		dst[i+2] = a[i+2]*b[i+2] + c[i+2]
		dst[i+3] = a[i+3]*b[i+3] + c[i+3]
		dst[i+4] = a[i+4]*b[i+4] + c[i+4]
		dst[i+5] = a[i+5]*b[i+5] + c[i+5]
		dst[i+6] = a[i+6]*b[i+6] + c[i+6]
		dst[i+7] = a[i+7]*b[i+7] + c[i+7]
		dst[i+8] = a[i+8]*b[i+8] + c[i+8]
		dst[i+9] = a[i+9]*b[i+9] + c[i+9]
		dst[i+10] = a[i+10]*b[i+10] + c[i+10]
		dst[i+11] = a[i+11]*b[i+11] + c[i+11]
		dst[i+12] = a[i+12]*b[i+12] + c[i+12]
		dst[i+13] = a[i+13]*b[i+13] + c[i+13]
		dst[i+14] = a[i+14]*b[i+14] + c[i+14]
		dst[i+15] = a[i+15]*b[i+15] + c[i+15]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i]*b[i] + c[i]
	}
}

func axpyW16(dst, b []float32, s float32) {
	i := 0
	for ; i+16 <= len(b); i += 16 {
		dst[i+0] += s * b[i+0]
		dst[i+1] += s * b[i+1]
		dst[i+2] += s * b[i+2]
		dst[i+3] += s * b[i+3]
		dst[i+4] += s * b[i+4]
		dst[i+5] += s * b[i+5]
		dst[i+6] += s * b[i+6]
		dst[i+7] += s * b[i+7]
		dst[i+8] += s * b[i+8]
		dst[i+9] += s * b[i+9]
		dst[i+10] += s * b[i+10]
		dst[i+11] += s * b[i+11]
		dst[i+12] += s * b[i+12]
		dst[i+13] += s * b[i+13]
		dst[i+14] += s * b[i+14]
		dst[i+15] += s * b[i+15]
	}
	for ; i < len(b); i++ {
		dst[i] += s * b[i]
	}
}

// dotW16 splits each 16-wide block across four accumulators folded in a
// fixed order, mirroring the horizontal-add tree of a 512-bit reduction.
func dotW16(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+16 <= len(a); i += 16 {
		s0 += a[i+0]*b[i+0] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
		s1 += a[i+4]*b[i+4] + a[i+5]*b[i+5] + a[i+6]*b[i+6] + a[i+7]*b[i+7]
		s2 += a[i+8]*b[i+8] + a[i+9]*b[i+9] + a[i+10]*b[i+10] + a[i+11]*b[i+11]
		s3 += a[i+12]*b[i+12] + a[i+13]*b[i+13] + a[i+14]*b[i+14] + a[i+15]*b[i+15]
	}
	sum := (s0 + s1) + (s2 + s3)
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func and32W16(dst, a, b []int32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0] & b[i+0]
		dst[i+1] = a[i+1] & b[i+1]
		dst[i+2] = a[i+2] & b[i+2]
		dst[i+3] = a[i+3] & b[i+3]
		dst[i+4] = a[i+4] & b[i+4]
		dst[i+5] = a[i+5] & b[i+5]
		dst[i+6] = a[i+6] & b[i+6]
		dst[i+7] = a[i+7] & b[i+7]
		dst[i+8] = a[i+8] & b[i+8]
		dst[i+9] = a[i+9] & b[i+9]
		dst[i+10] = a[i+10] & b[i+10]
		dst[i+11] = a[i+11] & b[i+11]
		dst[i+12] = a[i+12] & b[i+12]
		dst[i+13] = a[i+13] & b[i+13]
		dst[i+14] = a[i+14] & b[i+14]
		dst[i+15] = a[i+15] & b[i+15]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] & b[i]
	}
}

func or32W16(dst, a, b []int32) {
	i := 0
	for ; i+16 <= len(a); i += 16 {
		dst[i+0] = a[i+0] | b[i+0]
		dst[i+1] = a[i+1] | b[i+1]
		dst[i+2] = a[i+2] | b[i+2]
		dst[i+3] = a[i+3] | b[i+3]
		dst[i+4] = a[i+4] | b[i+4]
		dst[i+5] = a[i+5] | b[i+5]
		dst[i+6] = a[i+6] | b[i+6]
		dst[i+7] = a[i+7] | b[i+7]
		dst[i+8] = a[i+8] | b[i+8]
		dst[i+9] = a[i+9] | b[i+9]
		dst[i+10] = a[i+10] | b[i+10]
		dst[i+11] = a[i+11] | b[i+11]
		dst[i+12] = a[i+12] | b[i+12]
		dst[i+13] = a[i+13] | b[i+13]
		dst[i+14] = a[i+14] | b[i+14]
		dst[i+15] = a[i+15] | b[i+15]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] | b[i]
	}
}
