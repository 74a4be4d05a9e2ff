// Package sched partitions large inputs into cache-friendly chunks and
// runs them on a bounded set of worker goroutines.
//
// Chunks of one job never overlap, so elementwise work needs no locks.
// Reductions are always folded in ascending chunk order, which makes the
// result independent of the worker count and reproducible across runs.
package sched

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/numgo/internal/pool"
)

// Scheduler executes partitioned jobs. The zero value is not usable; use
// New.
type Scheduler struct {
	workers   int
	serialMin int
}

// New creates a scheduler with the given worker bound and serial threshold.
// workers is clamped to [1, logical cores]; jobs with fewer than serialMin
// elements run inline on the calling goroutine.
func New(workers, serialMin int) *Scheduler {
	cores := runtime.NumCPU()
	if workers <= 0 || workers > cores {
		workers = cores
	}
	if serialMin < 1 {
		serialMin = 1
	}
	return &Scheduler{workers: workers, serialMin: serialMin}
}

// Workers returns the worker bound.
func (s *Scheduler) Workers() int {
	return s.workers
}

// SerialThreshold returns the element count below which jobs run inline.
func (s *Scheduler) SerialThreshold() int {
	return s.serialMin
}

// chunkCount returns the number of chunks n elements split into.
func chunkCount(n, chunk int) int {
	return (n + chunk - 1) / chunk
}

// ForEach runs fn over [0, n) in chunks of the given size. Chunk ranges are
// disjoint, so fn may write to per-element output without synchronization.
// More chunks than workers are produced on purpose: workers pull the next
// chunk as they finish, so a slow chunk cannot stall the whole job.
//
// fn must not panic; a panic on a worker goroutine crashes the process.
func (s *Scheduler) ForEach(n, chunk int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if chunk <= 0 || chunk > n {
		chunk = n
	}

	chunks := chunkCount(n, chunk)
	if n <= s.serialMin || s.workers == 1 || chunks == 1 {
		fn(0, n)
		return
	}

	workers := min(s.workers, chunks)

	var cursor atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= chunks {
					return
				}
				lo := idx * chunk
				hi := min(lo+chunk, n)
				fn(lo, hi)
			}
		}()
	}

	wg.Wait()
}

// ReduceSum computes part over every chunk of [0, n) and folds the partial
// sums in ascending chunk order. The chunk boundaries and the fold order
// are identical whether the partials run inline or on workers, so the
// result is bit-for-bit reproducible for any worker count.
func (s *Scheduler) ReduceSum(n, chunk int, part func(lo, hi int) float32) float32 {
	if n <= 0 {
		return 0
	}
	if chunk <= 0 || chunk > n {
		chunk = n
	}

	chunks := chunkCount(n, chunk)

	// Partials live only until the fold below, so a pooled scratch keeps
	// repeated reductions from allocating. Every index is written before
	// the fold reads it.
	scratch := pool.Get()
	defer pool.Put(scratch)
	partials := scratch.Floats(chunks)

	if n <= s.serialMin || s.workers == 1 || chunks == 1 {
		for idx := 0; idx < chunks; idx++ {
			lo := idx * chunk
			hi := min(lo+chunk, n)
			partials[idx] = part(lo, hi)
		}
	} else {
		workers := min(s.workers, chunks)

		var cursor atomic.Int64
		var wg sync.WaitGroup
		wg.Add(workers)

		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for {
					idx := int(cursor.Add(1)) - 1
					if idx >= chunks {
						return
					}
					lo := idx * chunk
					hi := min(lo+chunk, n)
					partials[idx] = part(lo, hi)
				}
			}()
		}

		wg.Wait()
	}

	var sum float32
	for _, p := range partials {
		sum += p
	}
	return sum
}
