package numgo

import (
	"errors"
	"fmt"
)

var (
	// ErrMemoryLimit is returned when an allocation would exceed the
	// configured memory budget.
	ErrMemoryLimit = errors.New("memory limit exceeded")

	// ErrInvalidShape is returned when a matrix dimension is negative.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrClosed is returned when an operation is issued after Close.
	ErrClosed = errors.New("router is closed")
)

// ErrShapeMismatch indicates that two operands cannot be combined by the
// named operation. The check happens before any memory is allocated or
// any kernel runs.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	Op    string
	ARows int
	ACols int
	BRows int
	BCols int
	cause error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("%s: shape mismatch: %dx%d vs %dx%d", e.Op, e.ARows, e.ACols, e.BRows, e.BCols)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// ErrAllocation indicates that a buffer allocation was rejected.
//
// errors.Is(err, ErrMemoryLimit) reports whether the rejection came from
// the configured budget.
type ErrAllocation struct {
	Bytes int64
	Limit int64
	cause error
}

func (e *ErrAllocation) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("allocation of %d bytes rejected: %d byte limit", e.Bytes, e.Limit)
	}
	return fmt.Sprintf("allocation of %d bytes rejected", e.Bytes)
}

func (e *ErrAllocation) Unwrap() error { return e.cause }
