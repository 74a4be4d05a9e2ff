package kernel

// Scalar baseline implementations. These define the reference semantics:
// plain IEEE-754 float32 arithmetic, one element at a time, accumulated in
// index order.

func addScalar(dst, a, b []float32) {
	for i := range a {
		dst[i] = a[i] + b[i]
	}
}

func mulScalar(dst, a, b []float32) {
	for i := range a {
		dst[i] = a[i] * b[i]
	}
}

func scaleScalar(dst, a []float32, s float32) {
	for i := range a {
		dst[i] = a[i] * s
	}
}

func fmaScalar(dst, a, b, c []float32) {
	for i := range a {
		dst[i] = a[i]*b[i] + c[i]
	}
}

func axpyScalar(dst, b []float32, s float32) {
	for i := range b {
		dst[i] += s * b[i]
	}
}

func dotScalar(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func and32Scalar(dst, a, b []int32) {
	for i := range a {
		dst[i] = a[i] & b[i]
	}
}

func or32Scalar(dst, a, b []int32) {
	for i := range a {
		dst[i] = a[i] | b[i]
	}
}
