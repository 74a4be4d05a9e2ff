package numgo_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hupe1980/numgo"
	"github.com/hupe1980/numgo/internal/simd"
	"github.com/hupe1980/numgo/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomMatrix creates a rows x cols matrix with values in [-1, 1).
func randomMatrix(t *testing.T, rng *rand.Rand, rows, cols int) *numgo.Matrix {
	t.Helper()

	values := make([]float32, rows*cols)
	for i := range values {
		values[i] = rng.Float32()*2 - 1
	}
	m, err := numgo.NewMatrixFrom(rows, cols, values)
	require.NoError(t, err)
	return m
}

// matMulRef computes the product in float64 for use as a reference.
func matMulRef(a, b *numgo.Matrix) []float64 {
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	out := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			av := float64(a.At(i, l))
			for j := 0; j < n; j++ {
				out[i*n+j] += av * float64(b.At(l, j))
			}
		}
	}
	return out
}

// assertClose checks got against a float64 reference with relative
// tolerance. The tolerance accounts for float32 accumulation error.
func assertClose(t *testing.T, want float64, got float32, rtol float64) {
	t.Helper()

	diff := float64(got) - want
	if diff < 0 {
		diff = -diff
	}
	scale := want
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	if diff > rtol*scale {
		t.Fatalf("value %g too far from reference %g (rtol %g)", got, want, rtol)
	}
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		ng, err := numgo.New()
		require.NoError(t, err)
		defer ng.Close()

		level := ng.OptimizationLevel()
		assert.Contains(t, []string{"baseline", "sse4.2", "neon", "avx", "avx2", "avx512"}, level)
	})

	t.Run("UnknownCompression", func(t *testing.T) {
		_, err := numgo.New(numgo.WithConfig(numgo.Config{
			Enabled:     true,
			AutoDetect:  true,
			Compression: "brotli",
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brotli")
	})

	t.Run("UnknownISA", func(t *testing.T) {
		_, err := numgo.New(numgo.WithISA("mmx"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mmx")
	})
}

func TestMatMul(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	tests := []struct {
		m, k, n int
	}{
		{1, 1, 1},
		{2, 3, 2},
		{5, 1, 4},
		{17, 13, 9}, // odd sizes exercise the remainder loops
		{32, 32, 32},
		{64, 48, 80},
	}
	for _, tt := range tests {
		a := randomMatrix(t, rng, tt.m, tt.k)
		b := randomMatrix(t, rng, tt.k, tt.n)

		c, err := ng.MatMul(ctx, a, b)
		require.NoError(t, err)
		require.Equal(t, tt.m, c.Rows())
		require.Equal(t, tt.n, c.Cols())

		ref := matMulRef(a, b)
		for i := 0; i < tt.m*tt.n; i++ {
			assertClose(t, ref[i], c.Data()[i], 1e-4)
		}
	}
}

func TestMatMulIdentity(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(8))

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	a := randomMatrix(t, rng, 12, 12)
	id, err := numgo.NewMatrix(12, 12)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		id.Set(i, i, 1)
	}

	c, err := ng.MatMul(ctx, a, id)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), c.Data())
}

func TestMatMulParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(9))

	a := randomMatrix(t, rng, 64, 64)
	b := randomMatrix(t, rng, 64, 64)

	serial, err := numgo.New(numgo.WithWorkers(1))
	require.NoError(t, err)
	defer serial.Close()

	want, err := serial.MatMul(ctx, a, b)
	require.NoError(t, err)

	// Force the scheduled path regardless of host core count.
	parallel, err := numgo.New(numgo.WithWorkers(4), numgo.WithParallelThreshold(1))
	require.NoError(t, err)
	defer parallel.Close()

	got, err := parallel.MatMul(ctx, a, b)
	require.NoError(t, err)

	// Row panels are computed independently, so the bits must match.
	assert.Equal(t, want.Data(), got.Data())
}

func TestMatMulLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 1000x1000 multiply in short mode")
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(10))

	a := randomMatrix(t, rng, 1000, 1000)
	b := randomMatrix(t, rng, 1000, 1000)

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	c, err := ng.MatMul(ctx, a, b)
	require.NoError(t, err)

	// Spot-check sampled cells against a float64 reference.
	for _, i := range []int{0, 1, 499, 998, 999} {
		for j := 0; j < 1000; j += 97 {
			var want float64
			for l := 0; l < 1000; l++ {
				want += float64(a.At(i, l)) * float64(b.At(l, j))
			}
			assertClose(t, want, c.At(i, j), 1e-3)
		}
	}

	// The tiled serial path and the row-panel parallel path reorder the
	// loops but never the per-element accumulation, so both routings
	// agree bit for bit.
	serial, err := numgo.New(numgo.WithWorkers(1))
	require.NoError(t, err)
	defer serial.Close()

	want, err := serial.MatMul(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), c.Data())
}

func TestMatMulShapeMismatch(t *testing.T) {
	ctx := context.Background()

	metrics := &numgo.BasicMetricsCollector{}
	ng, err := numgo.New(numgo.WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrix(2, 3)
	require.NoError(t, err)
	b, err := numgo.NewMatrix(2, 3)
	require.NoError(t, err)

	_, err = ng.MatMul(ctx, a, b)
	require.Error(t, err)

	var shapeErr *numgo.ErrShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "matmul", shapeErr.Op)
	assert.Equal(t, 2, shapeErr.ARows)
	assert.Equal(t, 3, shapeErr.ACols)
	assert.Equal(t, 2, shapeErr.BRows)
	assert.Equal(t, 3, shapeErr.BCols)

	// Validation happens before any result buffer is allocated.
	assert.Equal(t, int64(0), metrics.GetStats().AllocCount)
}

func TestMatMulNilOperand(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrix(2, 2)
	require.NoError(t, err)

	_, err = ng.MatMul(ctx, a, nil)
	require.ErrorIs(t, err, numgo.ErrInvalidShape)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrixFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := numgo.NewMatrixFrom(2, 2, []float32{10, 20, 30, 40})
	require.NoError(t, err)

	c, err := ng.Add(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 33, 44}, c.Data())
}

func TestHadamard(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrixFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := numgo.NewMatrixFrom(2, 2, []float32{5, 6, 7, 8})
	require.NoError(t, err)

	c, err := ng.Hadamard(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 12, 21, 32}, c.Data())
}

func TestScaleRemainderLengths(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(10))

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	// Lengths around lane boundaries hit every tail path.
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17, 31, 33, 63, 64, 65, 100} {
		a := randomMatrix(t, rng, 1, n)

		c, err := ng.Scale(ctx, a, 2.5)
		require.NoError(t, err)
		require.Equal(t, n, c.Cols())

		for i := 0; i < n; i++ {
			// A single multiply is exact on every variant.
			require.Equal(t, a.Data()[i]*2.5, c.Data()[i], "length %d index %d", n, i)
		}
	}
}

func TestFMA(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrixFrom(1, 3, []float32{1, 2, 3})
	require.NoError(t, err)
	b, err := numgo.NewMatrixFrom(1, 3, []float32{4, 5, 6})
	require.NoError(t, err)
	c, err := numgo.NewMatrixFrom(1, 3, []float32{10, 10, 10})
	require.NoError(t, err)

	d, err := ng.FMA(ctx, a, b, c)
	require.NoError(t, err)
	assert.Equal(t, []float32{14, 20, 28}, d.Data())

	bad, err := numgo.NewMatrix(2, 3)
	require.NoError(t, err)
	_, err = ng.FMA(ctx, a, b, bad)
	var shapeErr *numgo.ErrShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "fma", shapeErr.Op)
}

func TestElementwiseParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))

	a := randomMatrix(t, rng, 300, 400)
	b := randomMatrix(t, rng, 300, 400)

	serial, err := numgo.New(numgo.WithWorkers(1))
	require.NoError(t, err)
	defer serial.Close()

	parallel, err := numgo.New(numgo.WithWorkers(8), numgo.WithParallelThreshold(1))
	require.NoError(t, err)
	defer parallel.Close()

	wantAdd, err := serial.Add(ctx, a, b)
	require.NoError(t, err)
	gotAdd, err := parallel.Add(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, wantAdd.Data(), gotAdd.Data())

	wantMul, err := serial.Hadamard(ctx, a, b)
	require.NoError(t, err)
	gotMul, err := parallel.Hadamard(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, wantMul.Data(), gotMul.Data())
}

func TestDot(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	got, err := ng.Dot(ctx, []float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, float64(got), 1e-6)

	_, err = ng.Dot(ctx, []float32{1, 2}, []float32{1})
	var shapeErr *numgo.ErrShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "dot", shapeErr.Op)

	empty, err := ng.Dot(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(0), empty)
}

func TestDotWorkerCountInvariance(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(12))

	n := 1 << 20
	a := make([]float32, n)
	b := make([]float32, n)
	var ref float64
	for i := range a {
		a[i] = rng.Float32()*2 - 1
		b[i] = rng.Float32()*2 - 1
		ref += float64(a[i]) * float64(b[i])
	}

	var results []float32
	for _, workers := range []int{1, 2, 4, 8} {
		ng, err := numgo.New(numgo.WithWorkers(workers), numgo.WithParallelThreshold(1024))
		require.NoError(t, err)

		got, err := ng.Dot(ctx, a, b)
		require.NoError(t, err)
		assertClose(t, ref, got, 1e-5)
		results = append(results, got)

		require.NoError(t, ng.Close())
	}

	// Partial sums fold in ascending chunk order, so every worker count
	// produces the same bits, not just the same approximate value.
	for _, got := range results[1:] {
		assert.Equal(t, results[0], got)
	}
}

func TestBitwiseInt32(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(13))

	ng, err := numgo.New()
	require.NoError(t, err)
	defer ng.Close()

	n := 70 // not a multiple of any lane width
	a := make([]int32, n)
	b := make([]int32, n)
	for i := range a {
		a[i] = rng.Int31()
		b[i] = rng.Int31()
	}

	and, err := ng.AndInt32(ctx, a, b)
	require.NoError(t, err)
	or, err := ng.OrInt32(ctx, a, b)
	require.NoError(t, err)

	for i := range a {
		require.Equal(t, a[i]&b[i], and[i])
		require.Equal(t, a[i]|b[i], or[i])
	}

	_, err = ng.AndInt32(ctx, a, b[:n-1])
	var shapeErr *numgo.ErrShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
}

func TestParallelFor(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New(numgo.WithWorkers(4), numgo.WithParallelThreshold(1))
	require.NoError(t, err)
	defer ng.Close()

	n := 10000
	visited := make([]int32, n)
	err = ng.ParallelFor(ctx, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			visited[i]++
		}
	})
	require.NoError(t, err)

	for i, v := range visited {
		require.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestMemoryBudget(t *testing.T) {
	ctx := context.Background()

	metrics := &numgo.BasicMetricsCollector{}
	ng, err := numgo.New(
		numgo.WithMemoryLimit(1024),
		numgo.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer ng.Close()

	// Two 10x10 matrices fit the 1 KiB budget, the third does not.
	m1, err := ng.NewMatrix(ctx, 10, 10)
	require.NoError(t, err)
	_, err = ng.NewMatrix(ctx, 10, 10)
	require.NoError(t, err)

	_, err = ng.NewMatrix(ctx, 10, 10)
	require.Error(t, err)
	require.ErrorIs(t, err, numgo.ErrMemoryLimit)

	var allocErr *numgo.ErrAllocation
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, int64(400), allocErr.Bytes)
	assert.Equal(t, int64(1024), allocErr.Limit)
	assert.Equal(t, int64(1), metrics.GetStats().AllocErrors)

	// Releasing returns bytes to the budget.
	m1.Release()
	m3, err := ng.NewMatrix(ctx, 10, 10)
	require.NoError(t, err)
	m3.Release()

	// Release is idempotent: double release must not free twice.
	m1.Release()
	_, err = ng.NewMatrix(ctx, 10, 10)
	require.NoError(t, err)
	_, err = ng.NewMatrix(ctx, 10, 10)
	require.Error(t, err)
}

func TestMemoryBudgetOnOps(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New(numgo.WithMemoryLimit(1024))
	require.NoError(t, err)
	defer ng.Close()

	// Operands allocated outside the router do not consume budget, but
	// the result buffer does.
	a, err := numgo.NewMatrix(64, 64)
	require.NoError(t, err)
	b, err := numgo.NewMatrix(64, 64)
	require.NoError(t, err)

	_, err = ng.Add(ctx, a, b)
	require.ErrorIs(t, err, numgo.ErrMemoryLimit)
}

func TestForcedBaselineWarnsOnce(t *testing.T) {
	ctx := context.Background()

	// Pretend the host has no usable vector units at all.
	simd.SetForced(simd.Baseline)
	t.Cleanup(simd.ResetDetection)

	var buf bytes.Buffer
	logger := numgo.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := &numgo.BasicMetricsCollector{}

	ng, err := numgo.New(numgo.WithLogger(logger), numgo.WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrixFrom(1, 2, []float32{1, 2})
	require.NoError(t, err)
	b, err := numgo.NewMatrixFrom(1, 2, []float32{3, 4})
	require.NoError(t, err)

	// Run several operations; the downgrade warning must appear once.
	_, err = ng.Add(ctx, a, b)
	require.NoError(t, err)
	_, err = ng.Hadamard(ctx, a, b)
	require.NoError(t, err)
	_, err = ng.Dot(ctx, a.Data(), b.Data())
	require.NoError(t, err)

	assert.Equal(t, "baseline", ng.OptimizationLevel())
	assert.Equal(t, 1, strings.Count(buf.String(), "acceleration unavailable"))
	assert.Equal(t, int64(1), metrics.GetStats().Fallbacks)
}

func TestAccelerationDisabled(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := numgo.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ng, err := numgo.New(numgo.WithAccelerationDisabled(), numgo.WithLogger(logger))
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrixFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := numgo.NewMatrixFrom(2, 2, []float32{5, 6, 7, 8})
	require.NoError(t, err)

	c, err := ng.Add(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 8, 10, 12}, c.Data())

	assert.Equal(t, "baseline", ng.OptimizationLevel())
	// Disabling acceleration is a choice, not a failure: no warning.
	assert.NotContains(t, buf.String(), "acceleration unavailable")
}

func TestEnvOverridePrecedence(t *testing.T) {
	t.Setenv("NUMGO_SIMD", "baseline")
	simd.ResetDetection()
	t.Cleanup(simd.ResetDetection)

	var buf bytes.Buffer
	logger := numgo.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// The environment override beats the configured preference, and an
	// operator-forced baseline is not a fallback.
	ng, err := numgo.New(numgo.WithISA("avx512"), numgo.WithLogger(logger))
	require.NoError(t, err)
	defer ng.Close()

	assert.Equal(t, "baseline", ng.OptimizationLevel())
	assert.True(t, ng.DeviceInfo().Overridden)
	assert.NotContains(t, buf.String(), "acceleration unavailable")
}

func TestBaselineMatchesAccelerated(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(14))

	a := randomMatrix(t, rng, 37, 53)
	b := randomMatrix(t, rng, 37, 53)

	accel, err := numgo.New()
	require.NoError(t, err)
	wantAdd, err := accel.Add(ctx, a, b)
	require.NoError(t, err)
	wantDot, err := accel.Dot(ctx, a.Data(), b.Data())
	require.NoError(t, err)
	require.NoError(t, accel.Close())

	base, err := numgo.New(numgo.WithAccelerationDisabled())
	require.NoError(t, err)
	defer base.Close()

	gotAdd, err := base.Add(ctx, a, b)
	require.NoError(t, err)
	gotDot, err := base.Dot(ctx, a.Data(), b.Data())
	require.NoError(t, err)

	// Elementwise results are bit-identical across variants.
	assert.Equal(t, wantAdd.Data(), gotAdd.Data())
	// Reductions may differ by accumulation order, within tolerance.
	assertClose(t, float64(wantDot), gotDot, 1e-5)
}

func TestDeviceInfo(t *testing.T) {
	ng, err := numgo.New(numgo.WithWorkers(2))
	require.NoError(t, err)
	defer ng.Close()

	info := ng.DeviceInfo()
	assert.Equal(t, ng.OptimizationLevel(), info.ISA)
	assert.NotEmpty(t, info.Detected)
	assert.NotEmpty(t, info.Family)
	assert.Contains(t, []int{8, 16, 32, 64}, info.Alignment)
	assert.GreaterOrEqual(t, info.Lanes, 1)
	assert.GreaterOrEqual(t, info.VectorBits, 64)
	assert.Equal(t, 2, info.Workers)
	assert.GreaterOrEqual(t, info.Cores, 1)
	assert.GreaterOrEqual(t, info.RecommendedThreads, 1)
	assert.Greater(t, info.Rating, 0)
	assert.Greater(t, info.CacheLine, 0)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(15))

	dir := t.TempDir()

	for _, comp := range []snapshot.Compression{
		snapshot.CompressionNone,
		snapshot.CompressionLZ4,
		snapshot.CompressionZSTD,
	} {
		t.Run(comp.String(), func(t *testing.T) {
			ng, err := numgo.New(numgo.WithCompression(comp))
			require.NoError(t, err)
			defer ng.Close()

			m := randomMatrix(t, rng, 33, 47)
			path := filepath.Join(dir, "m-"+comp.String()+".ngs")

			require.NoError(t, ng.SaveSnapshot(ctx, path, m))

			loaded, err := ng.LoadSnapshot(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, m.Rows(), loaded.Rows())
			assert.Equal(t, m.Cols(), loaded.Cols())
			assert.Equal(t, m.Data(), loaded.Data())
			assert.True(t, numgo.IsAlignedFloat32(loaded.Data()))
		})
	}
}

func TestSnapshotRateLimited(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(16))

	// Generous limit: the test only proves the limited path works.
	ng, err := numgo.New(numgo.WithIORateLimit(64 << 20))
	require.NoError(t, err)
	defer ng.Close()

	m := randomMatrix(t, rng, 50, 50)
	path := filepath.Join(t.TempDir(), "limited.ngs")

	require.NoError(t, ng.SaveSnapshot(ctx, path, m))
	loaded, err := ng.LoadSnapshot(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, m.Data(), loaded.Data())
}

func TestLoadSnapshotBudget(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(17))

	writer, err := numgo.New()
	require.NoError(t, err)

	m := randomMatrix(t, rng, 64, 64) // 16 KiB payload
	path := filepath.Join(t.TempDir(), "big.ngs")
	require.NoError(t, writer.SaveSnapshot(ctx, path, m))
	require.NoError(t, writer.Close())

	reader, err := numgo.New(numgo.WithMemoryLimit(1024))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.LoadSnapshot(ctx, path)
	require.ErrorIs(t, err, numgo.ErrMemoryLimit)
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	ng, err := numgo.New()
	require.NoError(t, err)

	a, err := numgo.NewMatrixFrom(1, 1, []float32{1})
	require.NoError(t, err)

	_, err = ng.Add(ctx, a, a)
	require.NoError(t, err)

	require.NoError(t, ng.Close())
	require.NoError(t, ng.Close()) // idempotent

	_, err = ng.Add(ctx, a, a)
	require.ErrorIs(t, err, numgo.ErrClosed)
	_, err = ng.Dot(ctx, a.Data(), a.Data())
	require.ErrorIs(t, err, numgo.ErrClosed)
	_, err = ng.NewMatrix(ctx, 1, 1)
	require.ErrorIs(t, err, numgo.ErrClosed)

	// Introspection still answers after Close.
	assert.NotEmpty(t, ng.OptimizationLevel())
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numgo.json")

	cfg := numgo.DefaultConfig()
	cfg.Workers = 2
	cfg.Compression = "lz4"
	require.NoError(t, cfg.Save(path))

	loaded, err := numgo.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	ng, err := numgo.New(numgo.WithConfigFile(path))
	require.NoError(t, err)
	defer ng.Close()
	assert.Equal(t, 2, ng.DeviceInfo().Workers)

	// Per-field options win over the file regardless of argument order.
	ng2, err := numgo.New(numgo.WithWorkers(3), numgo.WithConfigFile(path))
	require.NoError(t, err)
	defer ng2.Close()
	assert.Equal(t, 3, ng2.DeviceInfo().Workers)

	_, err = numgo.New(numgo.WithConfigFile(filepath.Join(dir, "missing.json")))
	require.Error(t, err)
}

func TestOptionPrecedence(t *testing.T) {
	cfg := numgo.DefaultConfig()
	cfg.Workers = 5

	ng, err := numgo.New(numgo.WithConfig(cfg), numgo.WithWorkers(2))
	require.NoError(t, err)
	defer ng.Close()
	assert.Equal(t, 2, ng.DeviceInfo().Workers)
}

func TestMetricsCollection(t *testing.T) {
	ctx := context.Background()

	metrics := &numgo.BasicMetricsCollector{}
	ng, err := numgo.New(
		numgo.WithMetricsCollector(metrics),
		numgo.WithWorkers(4),
		numgo.WithParallelThreshold(1),
	)
	require.NoError(t, err)
	defer ng.Close()

	a, err := numgo.NewMatrix(100, 100)
	require.NoError(t, err)

	_, err = ng.Add(ctx, a, a)
	require.NoError(t, err)
	_, err = ng.Scale(ctx, a, 3)
	require.NoError(t, err)
	_, err = ng.MatMul(ctx, a, a)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.OpCount)
	assert.Equal(t, int64(0), stats.OpErrors)
	assert.Equal(t, int64(3), stats.AllocCount)
	assert.Equal(t, int64(3*100*100*4), stats.AllocTotalBytes)
	if runtime.NumCPU() > 1 {
		assert.GreaterOrEqual(t, stats.ParallelJobs, int64(1))
	}
}

func TestErrorsUnwrap(t *testing.T) {
	allocErr := error(&numgo.ErrAllocation{})
	assert.NotErrorIs(t, allocErr, numgo.ErrMemoryLimit)

	var target *numgo.ErrShapeMismatch
	err := error(&numgo.ErrShapeMismatch{Op: "add", ARows: 1, ACols: 2, BRows: 3, BCols: 4})
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "add: shape mismatch: 1x2 vs 3x4", err.Error())
}
