// Package parallel runs data parallel passes over index ranges on a bounded
// worker pool.
//
// The range is split into contiguous chunks. Each chunk owns a private
// accumulator which is merged with the others pairwise once all chunks have
// completed, so reductions must be associative and commutative.
package parallel

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Settings control how a pass is distributed.
type Settings struct {
	// If false, passes always run on the calling goroutine.
	UseThreading bool

	// The maximum number of concurrently running chunks. Values < 1 select
	// runtime.GOMAXPROCS(0).
	Workers int

	// The minimum number of items per chunk. Values < 1 disable the limit.
	Granularity int

	// Ranges with fewer items than this run sequentially.
	MinParallel int
}

// Get the default settings.
func DefaultSettings() Settings {
	return Settings{
		UseThreading: true,
		Workers:      runtime.GOMAXPROCS(0),
		Granularity:  1,
		MinParallel:  2,
	}
}

func (s Settings) workers() int {
	if s.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return s.Workers
}

// Split n items into contiguous chunks. Returns the chunk size and count.
func (s Settings) chunks(n int) (size, count int) {
	workers := s.workers()
	size = (n + workers - 1) / workers
	if size < s.Granularity {
		size = s.Granularity
	}
	if size < 1 {
		size = 1
	}
	return size, (n + size - 1) / size
}

// Returns true if a pass over n items should use the worker pool.
func (s Settings) Threaded(n int) bool {
	if !s.UseThreading || n < s.MinParallel || s.workers() < 2 {
		return false
	}
	_, count := s.chunks(n)
	return count > 1
}

// Range invokes fn for every index in [0, n). Invocations for different
// indices may run concurrently.
func Range(n int, s Settings, fn func(i int)) {
	if n <= 0 {
		return
	}

	start := time.Now()
	if !s.Threaded(n) {
		for i := 0; i < n; i++ {
			fn(i)
		}
		instrumentPass(modeSequential, n, start)
		return
	}

	size, count := s.chunks(n)
	var g errgroup.Group
	g.SetLimit(s.workers())
	for c := 0; c < count; c++ {
		from, to := chunkBounds(c, size, n)
		g.Go(func() error {
			for i := from; i < to; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
	instrumentPass(modeThreaded, n, start)
}

// RangeReduce invokes fn for every index in [0, n) passing a chunk local
// accumulator created by init. Once all chunks complete the accumulators are
// merged pairwise using reduce (which folds src into dst) and the result is
// returned.
func RangeReduce[T any](n int, s Settings, init func() T, fn func(i int, acc *T), reduce func(dst, src *T)) T {
	if n <= 0 {
		return init()
	}

	start := time.Now()
	if !s.Threaded(n) {
		acc := init()
		for i := 0; i < n; i++ {
			fn(i, &acc)
		}
		instrumentPass(modeSequential, n, start)
		return acc
	}

	size, count := s.chunks(n)
	partials := make([]T, count)
	var g errgroup.Group
	g.SetLimit(s.workers())
	for c := 0; c < count; c++ {
		from, to := chunkBounds(c, size, n)
		partials[c] = init()
		c := c
		g.Go(func() error {
			acc := &partials[c]
			for i := from; i < to; i++ {
				fn(i, acc)
			}
			return nil
		})
	}
	_ = g.Wait()

	for stride := 1; stride < count; stride *= 2 {
		for i := 0; i+stride < count; i += 2 * stride {
			reduce(&partials[i], &partials[i+stride])
		}
	}
	instrumentPass(modeThreaded, n, start)
	return partials[0]
}

func chunkBounds(chunk, size, n int) (from, to int) {
	from = chunk * size
	to = from + size
	if to > n {
		to = n
	}
	return from, to
}
