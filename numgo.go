package numgo

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/numgo/codec"
	"github.com/hupe1980/numgo/internal/kernel"
	"github.com/hupe1980/numgo/internal/mem"
	"github.com/hupe1980/numgo/internal/sched"
	"github.com/hupe1980/numgo/internal/simd"
	"github.com/hupe1980/numgo/internal/tuner"
	"github.com/hupe1980/numgo/resource"
	"github.com/hupe1980/numgo/snapshot"
)

// Router dispatches numeric operations to the widest kernels the host
// supports, partitions large jobs across workers, and enforces optional
// resource budgets. A Router is safe for concurrent use.
type Router struct {
	cfg         Config
	codec       codec.Codec
	metrics     MetricsCollector
	logger      *Logger
	rc          *resource.Controller
	compression snapshot.Compression

	// Filled in by the one-time initialization barrier.
	initOnce   sync.Once
	profile    simd.Profile
	effective  simd.ISA
	kset       kernel.Set
	tuning     tuner.Tuning
	sched      *sched.Scheduler
	chunkElems int

	closed atomic.Bool
}

// New creates a Router. Capability detection is deferred until the first
// operation, so construction is cheap and never touches CPUID.
func New(optFns ...Option) (*Router, error) {
	o := applyOptions(optFns)

	cfg := DefaultConfig()
	if o.configFile != "" {
		loaded, err := LoadConfig(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.config != nil {
		cfg = *o.config
	}
	for _, fn := range o.configFns {
		fn(&cfg)
	}

	comp, ok := snapshot.ParseCompression(cfg.Compression)
	if !ok {
		return nil, fmt.Errorf("unknown snapshot compression %q", cfg.Compression)
	}
	if !cfg.AutoDetect && cfg.PreferredISA != "" {
		if _, ok := simd.ParseISA(cfg.PreferredISA); !ok {
			return nil, fmt.Errorf("unknown instruction set %q", cfg.PreferredISA)
		}
	}

	return &Router{
		cfg:         cfg,
		codec:       o.codec,
		metrics:     o.metricsCollector,
		logger:      o.logger,
		compression: comp,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:     o.memoryLimitBytes,
			MaxBackgroundWorkers: o.maxBackground,
			IOLimitBytesPerSec:   o.ioLimitPerSec,
		}),
	}, nil
}

// Resources exposes the router's resource controller so background jobs
// (benchmark runs, snapshot sweeps) can share its limits.
func (r *Router) Resources() *resource.Controller {
	return r.rc
}

// ensureReady runs detection and kernel binding exactly once. Every
// operation and introspection call funnels through here, so concurrent
// first uses block until the barrier completes.
func (r *Router) ensureReady(ctx context.Context) {
	r.initOnce.Do(func() {
		r.profile = simd.Detect()
		requested, downgraded := r.resolveISA(r.profile)
		r.kset = kernel.Select(requested)
		r.effective = r.kset.ISA()
		r.tuning = tuner.Lookup(r.profile)

		r.sched = sched.New(r.cfg.Workers, 1) // thresholds are applied per op
		r.chunkElems = max(1, r.tuning.ChunkLines*r.tuning.CacheLine/4)

		r.logger.LogDetection(ctx, r.profile.ISA.String(), r.profile.Overridden, r.profile.Vendor, r.profile.Brand)

		// Warn exactly once when acceleration was wanted but the bound
		// kernels are narrower than asked for, or plain scalar on a host
		// where nothing wider is usable.
		explicitBaseline := r.profile.Overridden && r.profile.ISA == simd.Baseline
		if !r.cfg.AutoDetect {
			if isa, ok := simd.ParseISA(r.cfg.PreferredISA); ok && isa == simd.Baseline {
				explicitBaseline = true
			}
		}
		sawFallback := downgraded || r.effective < requested ||
			(r.effective == simd.Baseline && !explicitBaseline)
		if r.cfg.Enabled && sawFallback {
			r.logger.LogFallback(ctx, requested.String(), r.effective.String())
			r.metrics.RecordFallback(requested.String(), r.effective.String())
		}
	})
}

// resolveISA applies the configuration policy to the detected profile.
// downgraded reports that the preferred instruction set was not usable
// and a fallback was chosen instead.
func (r *Router) resolveISA(p simd.Profile) (requested simd.ISA, downgraded bool) {
	if !r.cfg.Enabled {
		return simd.Baseline, false
	}
	// A NUMGO_SIMD override is an operator decision and beats any
	// configured preference.
	if p.Overridden {
		return p.ISA, false
	}
	if r.cfg.AutoDetect || r.cfg.PreferredISA == "" {
		return p.ISA, false
	}
	if isa, ok := simd.ParseISA(r.cfg.PreferredISA); ok && isaAvailable(p, isa) {
		return isa, false
	}
	for _, name := range r.cfg.FallbackOrder {
		if isa, ok := simd.ParseISA(name); ok && isaAvailable(p, isa) {
			return isa, true
		}
	}
	return simd.Baseline, true
}

func isaAvailable(p simd.Profile, isa simd.ISA) bool {
	switch isa {
	case simd.Baseline:
		return true
	case simd.SSE42:
		return p.HasSSE42
	case simd.NEON:
		return p.HasNEON
	case simd.AVX:
		return p.HasAVX
	case simd.AVX2:
		return p.HasAVX2
	case simd.AVX512:
		return p.HasAVX512
	default:
		return false
	}
}

func (r *Router) ready(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.ensureReady(ctx)
	return nil
}

// OptimizationLevel returns the name of the instruction set the kernels
// actually use ("avx512", "avx2", "avx", "sse4.2", "neon" or "baseline").
func (r *Router) OptimizationLevel() string {
	r.ensureReady(context.Background())
	return r.effective.String()
}

// DeviceInfo returns details about the host CPU and the bound kernels.
func (r *Router) DeviceInfo() DeviceInfo {
	r.ensureReady(context.Background())
	return buildDeviceInfo(r.profile, r.effective, r.sched.Workers(), r.tuning)
}

// Close marks the router closed. Subsequent operations return ErrClosed;
// introspection keeps working. Close is idempotent.
func (r *Router) Close() error {
	r.closed.Store(true)
	return nil
}

// NewMatrix allocates a zeroed rows x cols matrix against the router's
// memory budget. Release the matrix to return its bytes to the budget.
func (r *Router) NewMatrix(ctx context.Context, rows, cols int) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	return r.alloc(rows, cols)
}

// alloc admits rows*cols*4 bytes against the budget, then allocates.
func (r *Router) alloc(rows, cols int) (*Matrix, error) {
	bytes := int64(rows) * int64(cols) * 4
	if !r.rc.TryAcquireMemory(bytes) {
		err := &ErrAllocation{Bytes: bytes, Limit: r.rc.MemoryLimit(), cause: ErrMemoryLimit}
		r.metrics.RecordAlloc(bytes, err)
		return nil, err
	}
	r.metrics.RecordAlloc(bytes, nil)

	m := &Matrix{
		rows: rows,
		cols: cols,
		data: mem.AllocAlignedFloat32(rows*cols, DefaultAlignment),
	}
	m.release = func() { r.rc.ReleaseMemory(bytes) }
	return m, nil
}

// schedule runs fn over [0, n) in chunks, in parallel when the work size
// clears the configured threshold. fn must write disjoint output per
// range. Results are identical whether the job runs inline or split.
func (r *Router) schedule(ctx context.Context, op string, n, chunk, work int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if work < r.cfg.ParallelThreshold || r.sched.Workers() == 1 {
		fn(0, n)
		return
	}

	r.logger.LogParallel(ctx, op, n, r.sched.Workers())
	start := time.Now()
	r.sched.ForEach(n, chunk, fn)
	r.metrics.RecordParallelJob(op, r.sched.Workers(), time.Since(start))
}

// MatMul multiplies a (m x k) by b (k x n) and returns the m x n product.
//
// Row panels are independent, so the parallel path produces exactly the
// same bits as the serial one.
func (r *Router) MatMul(ctx context.Context, a, b *Matrix) (*Matrix, error) {
	start := time.Now()
	out, err := r.matMul(ctx, a, b)

	var m, k, n int
	if a != nil {
		m, k = a.rows, a.cols
	}
	if b != nil {
		n = b.cols
	}
	r.metrics.RecordOp("matmul", m*n, time.Since(start), err)
	r.logger.LogMatMul(ctx, m, k, n, err)
	return out, err
}

func (r *Router) matMul(ctx context.Context, a, b *Matrix) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidShape)
	}
	if a.cols != b.rows {
		return nil, &ErrShapeMismatch{Op: "matmul", ARows: a.rows, ACols: a.cols, BRows: b.rows, BCols: b.cols}
	}

	m, k, n := a.rows, a.cols, b.cols
	out, err := r.alloc(m, n)
	if err != nil {
		return nil, err
	}
	if m == 0 || n == 0 {
		return out, nil
	}

	work := m * k * n
	if work < r.cfg.ParallelThreshold || r.sched.Workers() == 1 {
		if n > r.tuning.BlockCols {
			r.kset.MatMulBlocked(out.data, a.data, b.data, m, k, n, r.tuning.BlockCols)
		} else {
			r.kset.MatMul(out.data, a.data, b.data, m, k, n)
		}
		return out, nil
	}

	rowChunk := max(1, r.chunkElems/n)
	r.logger.LogParallel(ctx, "matmul", m*n, r.sched.Workers())
	jobStart := time.Now()
	r.sched.ForEach(m, rowChunk, func(lo, hi int) {
		r.kset.MatMulRows(out.data, a.data, b.data, lo, hi, k, n)
	})
	r.metrics.RecordParallelJob("matmul", r.sched.Workers(), time.Since(jobStart))
	return out, nil
}

// Add returns the elementwise sum a + b.
func (r *Router) Add(ctx context.Context, a, b *Matrix) (*Matrix, error) {
	start := time.Now()
	out, err := r.elementwise(ctx, "add", a, b, func(dst, x, y []float32) { r.kset.Add(dst, x, y) })
	r.metrics.RecordOp("add", matSize(a), time.Since(start), err)
	r.logger.LogOp(ctx, "add", matSize(a), err)
	return out, err
}

// Hadamard returns the elementwise product a * b.
func (r *Router) Hadamard(ctx context.Context, a, b *Matrix) (*Matrix, error) {
	start := time.Now()
	out, err := r.elementwise(ctx, "hadamard", a, b, func(dst, x, y []float32) { r.kset.Mul(dst, x, y) })
	r.metrics.RecordOp("hadamard", matSize(a), time.Since(start), err)
	r.logger.LogOp(ctx, "hadamard", matSize(a), err)
	return out, err
}

func (r *Router) elementwise(ctx context.Context, op string, a, b *Matrix, fn func(dst, x, y []float32)) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidShape)
	}
	if a.rows != b.rows || a.cols != b.cols {
		return nil, &ErrShapeMismatch{Op: op, ARows: a.rows, ACols: a.cols, BRows: b.rows, BCols: b.cols}
	}

	out, err := r.alloc(a.rows, a.cols)
	if err != nil {
		return nil, err
	}

	n := len(out.data)
	r.schedule(ctx, op, n, r.chunkElems, n, func(lo, hi int) {
		fn(out.data[lo:hi], a.data[lo:hi], b.data[lo:hi])
	})
	return out, nil
}

// Scale returns a * alpha.
func (r *Router) Scale(ctx context.Context, a *Matrix, alpha float32) (*Matrix, error) {
	start := time.Now()
	out, err := r.scale(ctx, a, alpha)
	r.metrics.RecordOp("scale", matSize(a), time.Since(start), err)
	r.logger.LogOp(ctx, "scale", matSize(a), err)
	return out, err
}

func (r *Router) scale(ctx context.Context, a *Matrix, alpha float32) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidShape)
	}

	out, err := r.alloc(a.rows, a.cols)
	if err != nil {
		return nil, err
	}

	n := len(out.data)
	r.schedule(ctx, "scale", n, r.chunkElems, n, func(lo, hi int) {
		r.kset.Scale(out.data[lo:hi], a.data[lo:hi], alpha)
	})
	return out, nil
}

// FMA returns the elementwise fused form a*b + c.
func (r *Router) FMA(ctx context.Context, a, b, c *Matrix) (*Matrix, error) {
	start := time.Now()
	out, err := r.fma(ctx, a, b, c)
	r.metrics.RecordOp("fma", matSize(a), time.Since(start), err)
	r.logger.LogOp(ctx, "fma", matSize(a), err)
	return out, err
}

func (r *Router) fma(ctx context.Context, a, b, c *Matrix) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if a == nil || b == nil || c == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidShape)
	}
	if a.rows != b.rows || a.cols != b.cols {
		return nil, &ErrShapeMismatch{Op: "fma", ARows: a.rows, ACols: a.cols, BRows: b.rows, BCols: b.cols}
	}
	if a.rows != c.rows || a.cols != c.cols {
		return nil, &ErrShapeMismatch{Op: "fma", ARows: a.rows, ACols: a.cols, BRows: c.rows, BCols: c.cols}
	}

	out, err := r.alloc(a.rows, a.cols)
	if err != nil {
		return nil, err
	}

	n := len(out.data)
	r.schedule(ctx, "fma", n, r.chunkElems, n, func(lo, hi int) {
		r.kset.FMA(out.data[lo:hi], a.data[lo:hi], b.data[lo:hi], c.data[lo:hi])
	})
	return out, nil
}

// Dot returns the dot product of two equal-length vectors.
//
// Above the parallel threshold the input is folded chunk by chunk in
// ascending order, so the result is bit-identical for every worker count.
func (r *Router) Dot(ctx context.Context, a, b []float32) (float32, error) {
	start := time.Now()
	sum, err := r.dot(ctx, a, b)
	r.metrics.RecordOp("dot", len(a), time.Since(start), err)
	r.logger.LogOp(ctx, "dot", len(a), err)
	return sum, err
}

func (r *Router) dot(ctx context.Context, a, b []float32) (float32, error) {
	if err := r.ready(ctx); err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, &ErrShapeMismatch{Op: "dot", ARows: 1, ACols: len(a), BRows: 1, BCols: len(b)}
	}

	n := len(a)
	if n == 0 {
		return 0, nil
	}
	if n < r.cfg.ParallelThreshold {
		return r.kset.Dot(a, b), nil
	}

	if r.sched.Workers() > 1 {
		r.logger.LogParallel(ctx, "dot", n, r.sched.Workers())
	}
	jobStart := time.Now()
	sum := r.sched.ReduceSum(n, r.chunkElems, func(lo, hi int) float32 {
		return r.kset.Dot(a[lo:hi], b[lo:hi])
	})
	if r.sched.Workers() > 1 {
		r.metrics.RecordParallelJob("dot", r.sched.Workers(), time.Since(jobStart))
	}
	return sum, nil
}

// AndInt32 returns the elementwise bitwise AND of two equal-length
// vectors. Bitwise results are exact on every variant.
func (r *Router) AndInt32(ctx context.Context, a, b []int32) ([]int32, error) {
	start := time.Now()
	out, err := r.bitwise(ctx, "and32", a, b, func(dst, x, y []int32) { r.kset.And32(dst, x, y) })
	r.metrics.RecordOp("and32", len(a), time.Since(start), err)
	r.logger.LogOp(ctx, "and32", len(a), err)
	return out, err
}

// OrInt32 returns the elementwise bitwise OR of two equal-length vectors.
func (r *Router) OrInt32(ctx context.Context, a, b []int32) ([]int32, error) {
	start := time.Now()
	out, err := r.bitwise(ctx, "or32", a, b, func(dst, x, y []int32) { r.kset.Or32(dst, x, y) })
	r.metrics.RecordOp("or32", len(a), time.Since(start), err)
	r.logger.LogOp(ctx, "or32", len(a), err)
	return out, err
}

func (r *Router) bitwise(ctx context.Context, op string, a, b []int32, fn func(dst, x, y []int32)) ([]int32, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, &ErrShapeMismatch{Op: op, ARows: 1, ACols: len(a), BRows: 1, BCols: len(b)}
	}

	// Vector results carry no release handle, so they live outside the
	// memory budget; only Matrix allocations and snapshot loads count.
	n := len(a)
	out := mem.AllocAlignedInt32(n, DefaultAlignment)

	r.schedule(ctx, op, n, r.chunkElems, n, func(lo, hi int) {
		fn(out[lo:hi], a[lo:hi], b[lo:hi])
	})
	return out, nil
}

// ParallelFor runs fn over [0, n) using the router's scheduler, in chunks
// sized to the host cache line. fn must handle disjoint ranges
// independently; below the parallel threshold it runs inline.
func (r *Router) ParallelFor(ctx context.Context, n int, fn func(lo, hi int)) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	r.schedule(ctx, "parallel_for", n, r.chunkElems, n, fn)
	return nil
}

// SaveSnapshot writes a matrix to filename using the router's codec,
// compression, and IO rate limit. The write is atomic.
func (r *Router) SaveSnapshot(ctx context.Context, filename string, m *Matrix) error {
	err := r.saveSnapshot(ctx, filename, m)
	r.logger.LogSnapshot(ctx, "save", filename, err)
	return err
}

func (r *Router) saveSnapshot(ctx context.Context, filename string, m *Matrix) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalidShape)
	}

	opts := snapshot.WriteOptions{
		Compression: r.compression,
		Codec:       r.codec,
	}
	return snapshot.SaveToFile(filename, func(w io.Writer) error {
		return snapshot.Write(resource.NewRateLimitedWriter(ctx, w, r.rc), m.rows, m.cols, m.data, opts)
	})
}

// LoadSnapshot reads a matrix from filename. The loaded buffer counts
// against the router's memory budget.
func (r *Router) LoadSnapshot(ctx context.Context, filename string) (*Matrix, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	var meta snapshot.Meta
	var data []float32
	err := snapshot.LoadFromFile(filename, func(rd io.Reader) error {
		var err error
		meta, data, err = snapshot.Read(resource.NewRateLimitedReader(ctx, rd, r.rc))
		return err
	})
	if err != nil {
		r.logger.LogSnapshot(ctx, "load", filename, err)
		return nil, err
	}

	bytes := int64(meta.Rows) * int64(meta.Cols) * 4
	if !r.rc.TryAcquireMemory(bytes) {
		err := &ErrAllocation{Bytes: bytes, Limit: r.rc.MemoryLimit(), cause: ErrMemoryLimit}
		r.metrics.RecordAlloc(bytes, err)
		r.logger.LogSnapshot(ctx, "load", filename, err)
		return nil, err
	}
	r.metrics.RecordAlloc(bytes, nil)

	m := &Matrix{rows: meta.Rows, cols: meta.Cols, data: data}
	m.release = func() { r.rc.ReleaseMemory(bytes) }
	r.logger.LogSnapshot(ctx, "load", filename, nil)
	return m, nil
}

func matSize(m *Matrix) int {
	if m == nil {
		return 0
	}
	return m.rows * m.cols
}
