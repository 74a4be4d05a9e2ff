package kernel

// 8-lane variants (256-bit registers: AVX, AVX2).

func addW8(dst, a, b []float32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0] + b[i+0]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
		dst[i+4] = a[i+4] + b[i+4]
		dst[i+5] = a[i+5] + b[i+5]
		dst[i+6] = a[i+6] + b[i+6]
		dst[i+7] = a[i+7] + b[i+7]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] + b[i]
	}
}

func mulW8(dst, a, b []float32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0] * b[i+0]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
		dst[i+4] = a[i+4] * b[i+4]
		dst[i+5] = a[i+5] * b[i+5]
		dst[i+6] = a[i+6] * b[i+6]
		dst[i+7] = a[i+7] * b[i+7]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * b[i]
	}
}

func scaleW8(dst, a []float32, s float32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0] * s
		dst[i+1] = a[i+1] * s
		dst[i+2] = a[i+2] * s
		dst[i+3] = a[i+3] * s
		dst[i+4] = a[i+4] * s
		dst[i+5] = a[i+5] * s
		dst[i+6] = a[i+6] * s
		dst[i+7] = a[i+7] * s
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] * s
	}
}

func fmaW8(dst, a, b, c []float32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0]*b[i+0] + c[i+0]
		dst[i+1] = a[i+1]*b[i+1] + c[i+1]
		dst[i+2] = a[i+2]*b[i+2] + c[i+2]
		dst[i+3] = a[i+3]*b[i+3] + c[i+3]
		dst[i+4] = a[i+4]*b[i+4] + c[i+4]
		dst[i+5] = a[i+5]*b[i+5] + c[i+5]
		dst[i+6] = a[i+6]*b[i+6] + c[i+6]
		dst[i+7] = a[i+7]*b[i+7] + c[i+7]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i]*b[i] + c[i]
	}
}

func axpyW8(dst, b []float32, s float32) {
	i := 0
	for ; i+8 <= len(b); i += 8 {
		dst[i+0] += s * b[i+0]
		dst[i+1] += s * b[i+1]
		dst[i+2] += s * b[i+2]
		dst[i+3] += s * b[i+3]
		dst[i+4] += s * b[i+4]
		dst[i+5] += s * b[i+5]
		dst[i+6] += s * b[i+6]
		dst[i+7] += s * b[i+7]
	}
	for ; i < len(b); i++ {
		dst[i] += s * b[i]
	}
}

func dotW8(a, b []float32) float32 {
	var sum float32
	i := 0
	for ; i+8 <= len(a); i += 8 {
		sum += a[i+0]*b[i+0] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3] +
			a[i+4]*b[i+4] + a[i+5]*b[i+5] + a[i+6]*b[i+6] + a[i+7]*b[i+7]
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func and32W8(dst, a, b []int32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0] & b[i+0]
		dst[i+1] = a[i+1] & b[i+1]
		dst[i+2] = a[i+2] & b[i+2]
		dst[i+3] = a[i+3] & b[i+3]
		dst[i+4] = a[i+4] & b[i+4]
		dst[i+5] = a[i+5] & b[i+5]
		dst[i+6] = a[i+6] & b[i+6]
		dst[i+7] = a[i+7] & b[i+7]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] & b[i]
	}
}

func or32W8(dst, a, b []int32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		dst[i+0] = a[i+0] | b[i+0]
		dst[i+1] = a[i+1] | b[i+1]
		dst[i+2] = a[i+2] | b[i+2]
		dst[i+3] = a[i+3] | b[i+3]
		dst[i+4] = a[i+4] | b[i+4]
		dst[i+5] = a[i+5] | b[i+5]
		dst[i+6] = a[i+6] | b[i+6]
		dst[i+7] = a[i+7] | b[i+7]
	}
	for ; i < len(a); i++ {
		dst[i] = a[i] | b[i]
	}
}
