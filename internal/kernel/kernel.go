package kernel

import (
	"sync/atomic"

	"github.com/hupe1980/numgo/internal/simd"
)

// set is one variant set: every primitive at a single lane width.
// Function pointers keep dispatch at one indirect call, the pattern the
// accelerated builds rely on.
type set struct {
	isa simd.ISA

	add   func(dst, a, b []float32)
	mul   func(dst, a, b []float32)
	scale func(dst, a []float32, s float32)
	fma   func(dst, a, b, c []float32)
	axpy  func(dst, b []float32, s float32)
	dot   func(a, b []float32) float32

	and32 func(dst, a, b []int32)
	or32  func(dst, a, b []int32)
}

// baselineSet is always available and is the reference every other set is
// tested against.
var baselineSet = &set{
	isa:   simd.Baseline,
	add:   addScalar,
	mul:   mulScalar,
	scale: scaleScalar,
	fma:   fmaScalar,
	axpy:  axpyScalar,
	dot:   dotScalar,
	and32: and32Scalar,
	or32:  or32Scalar,
}

// variants holds the compiled-in accelerated sets, registered by the
// architecture-gated init functions. Empty on unsupported architectures and
// under the noasm tag.
var variants []*set

func register(s *set) {
	variants = append(variants, s)
}

// active is the process-wide set behind the package-level functions.
// Routers hold their own handles via Select and never touch it; the
// atomic pointer lets Bind rebind safely at any time.
var active atomic.Pointer[set]

func init() {
	active.Store(baselineSet)
}

// Set is a handle on one variant set. Routers hold their own Set, so two
// routers bound to different instruction sets never interfere. The zero
// value dispatches to the baseline set.
type Set struct {
	s *set
}

func (v Set) variant() *set {
	if v.s == nil {
		return baselineSet
	}
	return v.s
}

// ISA returns the instruction set this handle dispatches to.
func (v Set) ISA() simd.ISA {
	return v.variant().isa
}

// Select returns a handle on the widest compiled-in variant set not
// exceeding the requested ISA, which is the baseline set when no
// accelerated set is available (noasm builds, unsupported architectures).
// Select never changes the process-wide binding; for a fixed request the
// result is always the same set.
func Select(requested simd.ISA) Set {
	best := baselineSet
	for _, s := range variants {
		if s.isa <= requested && s.isa > best.isa {
			best = s
		}
	}
	return Set{s: best}
}

// Bind selects like Select and additionally makes the set the process-wide
// active one used by the package-level functions.
func Bind(requested simd.ISA) simd.ISA {
	v := Select(requested)
	active.Store(v.s)
	return v.s.isa
}

// Active returns the ISA of the currently bound variant set.
func Active() simd.ISA {
	return active.Load().isa
}

// Variants returns the ISAs of the compiled-in accelerated sets, in
// registration order. Baseline is implicit and not listed.
func Variants() []simd.ISA {
	isas := make([]simd.ISA, 0, len(variants))
	for _, s := range variants {
		isas = append(isas, s.isa)
	}
	return isas
}

// ============================================================================
// Public API - dispatch through the bound variant set
// ============================================================================

// Add computes dst[i] = a[i] + b[i].
//
// SAFETY: Assumes len(dst) == len(a) == len(b). Callers MUST validate
// shapes; no bounds checks happen here.
func Add(dst, a, b []float32) {
	active.Load().add(dst, a, b)
}

// Mul computes the elementwise (Hadamard) product dst[i] = a[i] * b[i].
//
// SAFETY: Assumes len(dst) == len(a) == len(b).
func Mul(dst, a, b []float32) {
	active.Load().mul(dst, a, b)
}

// Scale computes dst[i] = a[i] * s. dst and a may alias.
//
// SAFETY: Assumes len(dst) == len(a).
func Scale(dst, a []float32, s float32) {
	active.Load().scale(dst, a, s)
}

// FMA computes dst[i] = a[i]*b[i] + c[i]. Every variant evaluates the same
// expression form, so results match the baseline bit for bit even on
// platforms where the compiler emits a fused multiply-add.
//
// SAFETY: Assumes all four slices share one length.
func FMA(dst, a, b, c []float32) {
	active.Load().fma(dst, a, b, c)
}

// Dot returns the dot product of a and b. The accumulation order is fixed
// per variant; results stay within 1e-5 relative error of the baseline.
//
// SAFETY: Assumes len(a) == len(b).
func Dot(a, b []float32) float32 {
	return active.Load().dot(a, b)
}

// Axpy computes dst[i] += s * b[i], the inner step of the matrix multiply.
//
// SAFETY: Assumes len(dst) == len(b).
func Axpy(dst, b []float32, s float32) {
	active.Load().axpy(dst, b, s)
}

// And32 computes dst[i] = a[i] & b[i]. Exact on every variant.
//
// SAFETY: Assumes len(dst) == len(a) == len(b).
func And32(dst, a, b []int32) {
	active.Load().and32(dst, a, b)
}

// Or32 computes dst[i] = a[i] | b[i]. Exact on every variant.
//
// SAFETY: Assumes len(dst) == len(a) == len(b).
func Or32(dst, a, b []int32) {
	active.Load().or32(dst, a, b)
}

// ============================================================================
// Set methods - dispatch through the handle's variant set
// ============================================================================
//
// Same contracts as the package-level functions, including the SAFETY
// requirements on slice lengths.

func (v Set) Add(dst, a, b []float32) {
	v.variant().add(dst, a, b)
}

func (v Set) Mul(dst, a, b []float32) {
	v.variant().mul(dst, a, b)
}

func (v Set) Scale(dst, a []float32, s float32) {
	v.variant().scale(dst, a, s)
}

func (v Set) FMA(dst, a, b, c []float32) {
	v.variant().fma(dst, a, b, c)
}

func (v Set) Dot(a, b []float32) float32 {
	return v.variant().dot(a, b)
}

func (v Set) Axpy(dst, b []float32, s float32) {
	v.variant().axpy(dst, b, s)
}

func (v Set) And32(dst, a, b []int32) {
	v.variant().and32(dst, a, b)
}

func (v Set) Or32(dst, a, b []int32) {
	v.variant().or32(dst, a, b)
}
