package numgo

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/numgo/internal/mem"
)

// DefaultAlignment is the byte alignment of buffers created by this
// package. 64 bytes satisfies every kernel variant up to 512-bit vectors,
// so buffers never need re-allocating after an instruction set change.
const DefaultAlignment = mem.MaxAlignment

// Matrix is a dense row-major float32 matrix backed by an aligned buffer.
//
// The zero value is an empty 0x0 matrix. Use NewMatrix or the Router's
// allocation helpers to create one.
type Matrix struct {
	rows, cols int
	data       []float32

	release  func() // returns budget to the owning router, may be nil
	released atomic.Bool
}

// NewMatrix creates a zeroed rows x cols matrix with aligned storage.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	return &Matrix{
		rows: rows,
		cols: cols,
		data: mem.AllocAlignedFloat32(rows*cols, DefaultAlignment),
	}, nil
}

// NewMatrixFrom creates a rows x cols matrix by copying values into
// aligned storage. The source slice is left untouched.
func NewMatrixFrom(rows, cols int, values []float32) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d matrix", ErrInvalidShape, len(values), rows, cols)
	}

	m := &Matrix{
		rows: rows,
		cols: cols,
		data: mem.AllocAlignedFloat32(rows*cols, DefaultAlignment),
	}
	copy(m.data, values)
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Data returns the backing row-major slice. Mutating it mutates the
// matrix.
func (m *Matrix) Data() []float32 { return m.data }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("numgo: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
	return m.data[i*m.cols+j]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("numgo: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
	m.data[i*m.cols+j] = v
}

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float32 {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("numgo: row %d out of range for %dx%d matrix", i, m.rows, m.cols))
	}
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Release returns the matrix's bytes to the owning router's memory
// budget. It is idempotent and safe on matrices without a budget; the
// storage itself is reclaimed by the garbage collector as usual.
func (m *Matrix) Release() {
	if m == nil {
		return
	}
	if m.released.CompareAndSwap(false, true) && m.release != nil {
		m.release()
	}
}

// NewAlignedFloat32s returns a zeroed float32 slice whose backing array
// starts on a DefaultAlignment boundary.
func NewAlignedFloat32s(n int) []float32 {
	return mem.AllocAlignedFloat32(n, DefaultAlignment)
}

// NewAlignedInt32s returns a zeroed int32 slice whose backing array
// starts on a DefaultAlignment boundary.
func NewAlignedInt32s(n int) []int32 {
	return mem.AllocAlignedInt32(n, DefaultAlignment)
}

// AlignFloat32s copies src into freshly allocated aligned storage.
// The copy holds exactly the same values; src is left untouched.
func AlignFloat32s(src []float32) []float32 {
	return mem.AlignFloat32s(src, DefaultAlignment)
}

// AlignInt32s copies src into freshly allocated aligned storage.
func AlignInt32s(src []int32) []int32 {
	return mem.AlignInt32s(src, DefaultAlignment)
}

// IsAlignedFloat32 reports whether the slice's backing array starts on a
// DefaultAlignment boundary. Empty slices are trivially aligned.
func IsAlignedFloat32(s []float32) bool {
	return mem.IsAlignedFloat32(s, DefaultAlignment)
}

// IsAlignedInt32 reports whether the slice's backing array starts on a
// DefaultAlignment boundary.
func IsAlignedInt32(s []int32) bool {
	return mem.IsAlignedInt32(s, DefaultAlignment)
}
