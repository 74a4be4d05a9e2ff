// Package perf measures numgo operation throughput against the scalar
// baseline and produces machine-readable reports.
//
// Every measurement is verified before it is timed: the accelerated
// result must stay within a relative tolerance of the baseline result,
// so a report can never describe kernels that compute the wrong thing.
// Background runs take a worker slot from the router's resource
// controller, keeping report generation from crowding out compute.
package perf

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/hupe1980/numgo"
	"github.com/hupe1980/numgo/codec"
	"github.com/hupe1980/numgo/resource"
	"github.com/hupe1980/numgo/snapshot"
)

const (
	// DefaultIterations is how many timed runs each measurement takes;
	// the fastest run is reported.
	DefaultIterations = 5

	// DefaultTolerance is the relative error allowed between a variant
	// result and the baseline result during verification.
	DefaultTolerance = 1e-5

	warmupRuns = 2
)

// DefaultVectorSizes are the element counts measured for vector and
// elementwise operations.
var DefaultVectorSizes = []int{1 << 10, 1 << 14, 1 << 18}

// DefaultMatMulSizes are the square side lengths measured for matmul.
var DefaultMatMulSizes = []int{32, 64, 128}

// Result is one measured operation at one size.
type Result struct {
	Op              string  `json:"op"`
	Size            int     `json:"size"`
	NsPerOp         int64   `json:"ns_per_op"`
	BaselineNsPerOp int64   `json:"baseline_ns_per_op"`
	GFLOPS          float64 `json:"gflops"`
	Speedup         float64 `json:"speedup"`
}

// Report is a full measurement run over every operation.
type Report struct {
	CreatedAt time.Time `json:"created_at"`
	ISA       string    `json:"isa"`
	Vendor    string    `json:"vendor"`
	Brand     string    `json:"brand"`
	Workers   int       `json:"workers"`
	Results   []Result  `json:"results"`
}

// Save writes the report to path atomically using the given codec.
// A nil codec falls back to codec.Default.
func (r *Report) Save(path string, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return snapshot.SaveToFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// LoadReport reads a report written by Save.
func LoadReport(path string, c codec.Codec) (*Report, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := c.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

// Runner measures one accelerated router against an internal scalar
// reference router.
type Runner struct {
	variant  *numgo.Router
	baseline *numgo.Router
	rc       *resource.Controller
	logger   *numgo.Logger

	vectorSizes []int
	matMulSizes []int
	iterations  int
	rtol        float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithVectorSizes sets the element counts measured for vector and
// elementwise operations.
func WithVectorSizes(sizes ...int) Option {
	return func(r *Runner) {
		r.vectorSizes = sizes
	}
}

// WithMatMulSizes sets the square side lengths measured for matmul.
func WithMatMulSizes(sizes ...int) Option {
	return func(r *Runner) {
		r.matMulSizes = sizes
	}
}

// WithIterations sets the timed runs per measurement.
func WithIterations(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.iterations = n
		}
	}
}

// WithTolerance sets the relative error allowed during verification.
func WithTolerance(rtol float64) Option {
	return func(r *Runner) {
		if rtol > 0 {
			r.rtol = rtol
		}
	}
}

// WithLogger sets the logger for run progress.
func WithLogger(l *numgo.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner measuring the given router. The scalar
// reference router is created internally; Close releases it.
func NewRunner(variant *numgo.Router, optFns ...Option) (*Runner, error) {
	if variant == nil {
		return nil, fmt.Errorf("perf: variant router is nil")
	}

	baseline, err := numgo.New(
		numgo.WithAccelerationDisabled(),
		numgo.WithWorkers(1),
	)
	if err != nil {
		return nil, fmt.Errorf("perf: failed to create baseline router: %w", err)
	}

	r := &Runner{
		variant:     variant,
		baseline:    baseline,
		rc:          variant.Resources(),
		logger:      numgo.NoopLogger(),
		vectorSizes: DefaultVectorSizes,
		matMulSizes: DefaultMatMulSizes,
		iterations:  DefaultIterations,
		rtol:        DefaultTolerance,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(r)
		}
	}
	return r, nil
}

// Close releases the internal baseline router.
func (r *Runner) Close() error {
	return r.baseline.Close()
}

// measurement is one op at one size, with closures for the timed run and
// for producing the value that verification compares.
type measurement struct {
	op    string
	size  int
	flops int64
	run   func(ng *numgo.Router) error
	out   func(ng *numgo.Router) ([]float32, error)
}

// Run verifies and measures every operation, returning the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	info := r.variant.DeviceInfo()
	report := &Report{
		CreatedAt: time.Now().UTC(),
		ISA:       info.ISA,
		Vendor:    info.Vendor,
		Brand:     info.Brand,
		Workers:   info.Workers,
	}

	for _, m := range r.measurements(ctx) {
		res, err := r.measure(ctx, m)
		if err != nil {
			r.logger.LogBenchmark(ctx, m.op, 0, err)
			return nil, err
		}
		r.logger.LogBenchmark(ctx, m.op, res.Speedup, nil)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// Outcome is the result of a background run.
type Outcome struct {
	Report *Report
	Err    error
}

// RunBackground runs Run on its own goroutine after acquiring a
// background worker slot from the router's resource controller. The
// returned channel delivers exactly one Outcome.
func (r *Runner) RunBackground(ctx context.Context) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		if err := r.rc.AcquireBackground(ctx); err != nil {
			ch <- Outcome{Err: err}
			return
		}
		defer r.rc.ReleaseBackground()

		report, err := r.Run(ctx)
		ch <- Outcome{Report: report, Err: err}
	}()
	return ch
}

func (r *Runner) measurements(ctx context.Context) []measurement {
	var ms []measurement

	for _, n := range r.vectorSizes {
		n := n
		a := randomMatrix(1, n, uint32(101+n))
		b := randomMatrix(1, n, uint32(211+n))
		c := randomMatrix(1, n, uint32(307+n))

		ms = append(ms,
			measurement{
				op: "add", size: n, flops: int64(n),
				run: func(ng *numgo.Router) error { _, err := ng.Add(ctx, a, b); return err },
				out: func(ng *numgo.Router) ([]float32, error) {
					out, err := ng.Add(ctx, a, b)
					return matData(out), err
				},
			},
			measurement{
				op: "hadamard", size: n, flops: int64(n),
				run: func(ng *numgo.Router) error { _, err := ng.Hadamard(ctx, a, b); return err },
				out: func(ng *numgo.Router) ([]float32, error) {
					out, err := ng.Hadamard(ctx, a, b)
					return matData(out), err
				},
			},
			measurement{
				op: "scale", size: n, flops: int64(n),
				run: func(ng *numgo.Router) error { _, err := ng.Scale(ctx, a, 1.5); return err },
				out: func(ng *numgo.Router) ([]float32, error) {
					out, err := ng.Scale(ctx, a, 1.5)
					return matData(out), err
				},
			},
			measurement{
				op: "fma", size: n, flops: 2 * int64(n),
				run: func(ng *numgo.Router) error { _, err := ng.FMA(ctx, a, b, c); return err },
				out: func(ng *numgo.Router) ([]float32, error) {
					out, err := ng.FMA(ctx, a, b, c)
					return matData(out), err
				},
			},
			measurement{
				op: "dot", size: n, flops: 2 * int64(n),
				run: func(ng *numgo.Router) error { _, err := ng.Dot(ctx, a.Data(), b.Data()); return err },
				out: func(ng *numgo.Router) ([]float32, error) {
					sum, err := ng.Dot(ctx, a.Data(), b.Data())
					return []float32{sum}, err
				},
			},
		)
	}

	for _, s := range r.matMulSizes {
		s := s
		a := randomMatrix(s, s, uint32(401+s))
		b := randomMatrix(s, s, uint32(503+s))

		ms = append(ms, measurement{
			op: "matmul", size: s, flops: 2 * int64(s) * int64(s) * int64(s),
			run: func(ng *numgo.Router) error { _, err := ng.MatMul(ctx, a, b); return err },
			out: func(ng *numgo.Router) ([]float32, error) {
				out, err := ng.MatMul(ctx, a, b)
				return matData(out), err
			},
		})
	}

	return ms
}

func (r *Runner) measure(ctx context.Context, m measurement) (Result, error) {
	// Verify before timing: a fast wrong kernel must never enter a report.
	got, err := m.out(r.variant)
	if err != nil {
		return Result{}, fmt.Errorf("perf: %s/%d failed: %w", m.op, m.size, err)
	}
	want, err := m.out(r.baseline)
	if err != nil {
		return Result{}, fmt.Errorf("perf: %s/%d baseline failed: %w", m.op, m.size, err)
	}
	if diff := maxRelDiff(want, got); diff > r.rtol {
		return Result{}, fmt.Errorf("perf: %s/%d verification failed: relative error %.3g exceeds %.3g", m.op, m.size, diff, r.rtol)
	}

	variantNs, err := r.time(m.run, r.variant)
	if err != nil {
		return Result{}, err
	}
	baselineNs, err := r.time(m.run, r.baseline)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Op:              m.op,
		Size:            m.size,
		NsPerOp:         variantNs,
		BaselineNsPerOp: baselineNs,
	}
	if variantNs > 0 {
		res.GFLOPS = float64(m.flops) / float64(variantNs)
		res.Speedup = float64(baselineNs) / float64(variantNs)
	}
	return res, nil
}

// time reports the fastest of the configured runs, after warmup and a GC
// to keep setup allocations out of the measurement.
func (r *Runner) time(run func(ng *numgo.Router) error, ng *numgo.Router) (int64, error) {
	for i := 0; i < warmupRuns; i++ {
		if err := run(ng); err != nil {
			return 0, err
		}
	}
	runtime.GC()

	best := int64(math.MaxInt64)
	for i := 0; i < r.iterations; i++ {
		start := time.Now()
		if err := run(ng); err != nil {
			return 0, err
		}
		if d := time.Since(start).Nanoseconds(); d < best {
			best = d
		}
	}
	if best < 1 {
		best = 1
	}
	return best, nil
}

// maxRelDiff returns the largest elementwise relative difference, with
// values below 1 compared absolutely.
func maxRelDiff(want, got []float32) float64 {
	if len(want) != len(got) {
		return math.Inf(1)
	}

	var worst float64
	for i := range want {
		diff := math.Abs(float64(got[i]) - float64(want[i]))
		scale := math.Abs(float64(want[i]))
		if scale < 1 {
			scale = 1
		}
		if rel := diff / scale; rel > worst {
			worst = rel
		}
	}
	return worst
}

func matData(m *numgo.Matrix) []float32 {
	if m == nil {
		return nil
	}
	return m.Data()
}

// randomMatrix builds deterministic pseudo-random inputs. A fixed linear
// congruential sequence keeps runs comparable without seeding math/rand.
func randomMatrix(rows, cols int, seed uint32) *numgo.Matrix {
	values := make([]float32, rows*cols)
	state := seed
	for i := range values {
		state = state*1664525 + 1013904223
		values[i] = float32(state>>8)/float32(1<<24)*2 - 1
	}
	m, err := numgo.NewMatrixFrom(rows, cols, values)
	if err != nil {
		panic(err)
	}
	return m
}
