package filepool

import (
	"context"
	"sync"

	"github.com/drgolem/samplepool/pkg/oversampler"
	"github.com/drgolem/samplepool/pkg/workerpool"
)

// Dispatcher is the single dedicated goroutine standing between the audio
// thread's LoadQueue and the shared worker pool (spec.md §4.5). It never
// blocks the audio thread: TryPush wakes it with a non-blocking signal, and
// it drains everything currently queued before going back to sleep.
type Dispatcher struct {
	queue     *LoadQueue
	pool      *workerpool.Pool
	resampler oversampler.Oversampler
	logger    Logger
	gw        *GarbageWorker

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	mu       sync.Mutex
	inFlight []*workerpool.Future
}

// NewDispatcher wires a Dispatcher over queue, submitting loader jobs to
// pool and logging/recording their outcomes through logger and gw.
func NewDispatcher(queue *LoadQueue, pool *workerpool.Pool, resampler oversampler.Oversampler, logger Logger, gw *GarbageWorker) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		pool:      pool,
		resampler: resampler,
		logger:    logger,
		gw:        gw,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Notify wakes the dispatcher after a push onto the queue. Non-blocking: a
// pending wake-up coalesces with one already in flight, since a dispatcher
// drains the entire queue on each wake rather than popping a single item.
func (d *Dispatcher) Notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue every time Notify fires until Stop is called, then
// makes one final drain pass and returns. Meant to run in its own goroutine.
func (d *Dispatcher) Run() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// Stop requests shutdown and blocks until Run has returned.
func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}

// Wait blocks until every job submitted so far has completed. Intended for
// tests and for the pool's explicit WaitForBackgroundLoading operation;
// loader jobs never return an error of their own (failures are logged, not
// propagated to callers).
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	futures := append([]*workerpool.Future(nil), d.inFlight...)
	d.mu.Unlock()

	for _, f := range futures {
		f.Wait()
	}
}

func (d *Dispatcher) drain() {
	for {
		req, ok := d.queue.TryPop()
		if !ok {
			break
		}
		d.dispatch(req)
	}
	d.reapInFlight()
}

// dispatch drops requests whose entry has already been unregistered (the
// weak pointer has gone nil) and otherwise submits a loader job onto the
// shared pool, tracking its future.
func (d *Dispatcher) dispatch(req QueuedRequest) {
	entry := req.WeakEntry.Value()
	if entry == nil {
		return
	}
	resampler := d.resampler
	logger := d.logger
	gw := d.gw
	enqueuedAt := req.EnqueuedAt

	future := d.pool.Enqueue(context.Background(), func() error {
		runLoaderJob(entry, resampler, logger, gw, enqueuedAt)
		return nil
	})

	d.mu.Lock()
	d.inFlight = append(d.inFlight, future)
	d.mu.Unlock()
}

// reapInFlight removes completed futures from the tracking list via
// swap-and-pop, per spec.md §4.5. The mutex is shared only with dispatch
// and Wait; it never contends with the audio thread, which never touches
// inFlight.
func (d *Dispatcher) reapInFlight() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < len(d.inFlight); {
		if d.inFlight[i].Done() {
			last := len(d.inFlight) - 1
			d.inFlight[i] = d.inFlight[last]
			d.inFlight = d.inFlight[:last]
		} else {
			i++
		}
	}
}
