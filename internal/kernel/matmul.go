package kernel

// MatMul computes dst = a × b where a is m×k, b is k×n and dst is m×n, all
// in row-major layout. The loop order is i-l-j: every dst element
// accumulates its k products in ascending l order, so the blocked path and
// the row-partitioned parallel path produce bit-identical results.
//
// SAFETY: Assumes len(a) >= m*k, len(b) >= k*n, len(dst) >= m*n.
func MatMul(dst, a, b []float32, m, k, n int) {
	matMulRows(active.Load(), dst, a, b, 0, m, k, n)
}

// MatMulRows computes rows [i0, i1) of dst = a × b. Rows outside the range
// are left untouched, which lets disjoint row ranges run on separate
// goroutines without locks.
func MatMulRows(dst, a, b []float32, i0, i1, k, n int) {
	matMulRows(active.Load(), dst, a, b, i0, i1, k, n)
}

// MatMulBlocked is MatMul with the columns of dst processed in panels of
// blockCols, keeping the touched slices of b resident in cache for large n.
// Accumulation order per element is unchanged, so the result is identical
// to MatMul. blockCols <= 0 falls back to the unblocked path.
func MatMulBlocked(dst, a, b []float32, m, k, n, blockCols int) {
	matMulBlocked(active.Load(), dst, a, b, m, k, n, blockCols)
}

// MatMul is the handle form of the package-level MatMul.
func (v Set) MatMul(dst, a, b []float32, m, k, n int) {
	matMulRows(v.variant(), dst, a, b, 0, m, k, n)
}

// MatMulRows is the handle form of the package-level MatMulRows.
func (v Set) MatMulRows(dst, a, b []float32, i0, i1, k, n int) {
	matMulRows(v.variant(), dst, a, b, i0, i1, k, n)
}

// MatMulBlocked is the handle form of the package-level MatMulBlocked.
func (v Set) MatMulBlocked(dst, a, b []float32, m, k, n, blockCols int) {
	matMulBlocked(v.variant(), dst, a, b, m, k, n, blockCols)
}

func matMulRows(s *set, dst, a, b []float32, i0, i1, k, n int) {
	for i := i0; i < i1; i++ {
		row := dst[i*n : (i+1)*n]
		clear(row)
		ar := a[i*k : (i+1)*k]
		for l := 0; l < k; l++ {
			s.axpy(row, b[l*n:(l+1)*n], ar[l])
		}
	}
}

func matMulBlocked(s *set, dst, a, b []float32, m, k, n, blockCols int) {
	if blockCols <= 0 || blockCols >= n {
		matMulRows(s, dst, a, b, 0, m, k, n)
		return
	}

	for jb := 0; jb < n; jb += blockCols {
		je := min(jb+blockCols, n)
		for i := 0; i < m; i++ {
			row := dst[i*n+jb : i*n+je]
			clear(row)
			ar := a[i*k : (i+1)*k]
			for l := 0; l < k; l++ {
				s.axpy(row, b[l*n+jb:l*n+je], ar[l])
			}
		}
	}
}
