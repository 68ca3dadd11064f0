// Package workerpool provides a fixed-concurrency enqueue-and-return-future
// executor, the Go stand-in for the shared thread pool sfz::FilePool pulls
// from globalThreadPool() (original_source/src/sfizz/FilePool.cpp:51-72).
// Concurrency is bounded with golang.org/x/sync/semaphore, the same package
// the retrieval pack uses to cap concurrent work in
// starsinc1708-TorrX's search aggregator.
package workerpool

import (
	"context"
	"sync"
	"weak"

	"golang.org/x/sync/semaphore"
)

// Future is the handle returned by Enqueue. Wait blocks until the job has
// run and returns the error it produced, if any.
type Future struct {
	done chan struct{}
	err  error
}

// Wait blocks until the job completes and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Done reports whether the job has completed without blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Pool runs enqueued jobs with at most Concurrency of them active at once.
// A Pool has no dedicated goroutines of its own: Enqueue spawns one
// goroutine per job and the semaphore throttles how many run concurrently,
// matching the "fixed number of worker threads, only its enqueue-and-
// return-future contract is used" requirement.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a Pool that runs at most concurrency jobs at a time.
func New(concurrency int64) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{sem: semaphore.NewWeighted(concurrency)}
}

// Enqueue schedules fn to run as soon as a concurrency slot is free. The
// returned Future's Wait/Done can be used to await completion; a nil ctx is
// treated as context.Background(). If ctx is cancelled before a slot frees
// up, fn never runs and Wait returns the context's error.
func (p *Pool) Enqueue(ctx context.Context, fn func() error) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	future := &Future{done: make(chan struct{})}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(future.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			future.err = err
			return
		}
		defer p.sem.Release(1)

		future.err = fn()
	}()

	return future
}

// Wait blocks until every job ever enqueued on this Pool has returned,
// including ones enqueued after Wait was called but before it returns.
func (p *Pool) Wait() {
	p.wg.Wait()
}

var (
	sharedMu   sync.Mutex
	sharedPool weak.Pointer[Pool]
)

// Shared returns the process-wide pool, creating it with concurrency slots
// on first use. Subsequent calls reuse the same Pool as long as some caller
// still holds a reference to it; once every holder has dropped it, the next
// Shared call allocates a fresh one. This mirrors globalThreadPool()'s
// process-lifetime singleton without pinning the pool in memory forever.
func Shared(concurrency int64) *Pool {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if p := sharedPool.Value(); p != nil {
		return p
	}

	p := New(concurrency)
	sharedPool = weak.Make(p)
	return p
}
