package numgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    opCounter   prometheus.Counter
//	    opHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordOp(op string, size int, duration time.Duration, err error) {
//	    p.opCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordOp is called after each compute operation.
	// size is the element count (for matmul, the output element count),
	// duration is the total time taken, err is nil if successful.
	RecordOp(op string, size int, duration time.Duration, err error)

	// RecordParallelJob is called when an operation is routed through the
	// scheduler instead of running inline.
	RecordParallelJob(op string, workers int, duration time.Duration)

	// RecordFallback is called when the requested instruction set could
	// not be bound and kernels were downgraded.
	RecordFallback(requested, effective string)

	// RecordAlloc is called after each managed buffer allocation.
	// err is nil if the allocation was admitted.
	RecordAlloc(bytes int64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOp(string, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordParallelJob(string, int, time.Duration) {}
func (NoopMetricsCollector) RecordFallback(string, string)                {}
func (NoopMetricsCollector) RecordAlloc(int64, error)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpCount         atomic.Int64
	OpErrors        atomic.Int64
	OpTotalNanos    atomic.Int64
	ParallelJobs    atomic.Int64
	Fallbacks       atomic.Int64
	AllocCount      atomic.Int64
	AllocErrors     atomic.Int64
	AllocTotalBytes atomic.Int64
}

// RecordOp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOp(op string, size int, duration time.Duration, err error) {
	b.OpCount.Add(1)
	b.OpTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.OpErrors.Add(1)
	}
}

// RecordParallelJob implements MetricsCollector.
func (b *BasicMetricsCollector) RecordParallelJob(op string, workers int, duration time.Duration) {
	b.ParallelJobs.Add(1)
}

// RecordFallback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFallback(requested, effective string) {
	b.Fallbacks.Add(1)
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(bytes int64, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocTotalBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpCount:         b.OpCount.Load(),
		OpErrors:        b.OpErrors.Load(),
		OpAvgNanos:      b.getAvgOpNanos(),
		ParallelJobs:    b.ParallelJobs.Load(),
		Fallbacks:       b.Fallbacks.Load(),
		AllocCount:      b.AllocCount.Load(),
		AllocErrors:     b.AllocErrors.Load(),
		AllocTotalBytes: b.AllocTotalBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgOpNanos() int64 {
	count := b.OpCount.Load()
	if count == 0 {
		return 0
	}
	return b.OpTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpCount         int64
	OpErrors        int64
	OpAvgNanos      int64
	ParallelJobs    int64
	Fallbacks       int64
	AllocCount      int64
	AllocErrors     int64
	AllocTotalBytes int64
}
