package filepool

import (
	"runtime"
	"sync"
	"time"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
)

// defaultGarbageCapacity bounds how many tail buffers a single sweep will
// move into garbageToCollect before deferring the rest to a later sweep
// (spec.md §4.7's "if garbageToCollect is at capacity -> keep").
const defaultGarbageCapacity = 64

// GarbageWorker reclaims idle streamed tails (spec.md §4.7). It owns two
// spin-locked lists: lastUsedFiles, appended to by every loader job as it
// finishes, and garbageToCollect, the buffers a sweep decided to free. Both
// locks are try-locked so neither the loader nor a sweep ever blocks the
// audio thread; same discipline as _examples/AmineAfia-super-characters'
// audio callback guarding its recording buffer with Mutex.TryLock.
type GarbageWorker struct {
	fileClearingPeriod time.Duration
	garbageCapacity    int

	lastUsedMutex sync.Mutex
	lastUsedFiles []*CacheEntry

	garbageMutex     sync.Mutex
	garbageToCollect []*audiobuffer.Buffer

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewGarbageWorker constructs a GarbageWorker that keeps an idle tail
// resident for at least fileClearingPeriod after its last reader departs.
func NewGarbageWorker(fileClearingPeriod time.Duration) *GarbageWorker {
	return &GarbageWorker{
		fileClearingPeriod: fileClearingPeriod,
		garbageCapacity:    defaultGarbageCapacity,
		wake:               make(chan struct{}, 1),
		stop:               make(chan struct{}),
		done:               make(chan struct{}),
	}
}

// markUsed records entry as a sweep candidate; called by a loader job right
// after it reaches StatusDone (spec.md §4.6 step 10). Spins rather than
// blocking, since this can be invoked from a pool worker racing a sweep.
func (g *GarbageWorker) markUsed(entry *CacheEntry) {
	for !g.lastUsedMutex.TryLock() {
		runtime.Gosched()
	}
	g.lastUsedFiles = append(g.lastUsedFiles, entry)
	g.lastUsedMutex.Unlock()
}

// Notify wakes the worker for an out-of-band sweep. Non-blocking: a pending
// wake-up coalesces with one already queued.
func (g *GarbageWorker) Notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Run drives the worker's own goroutine: one sweep per Notify, and a final
// sweep on Stop before returning. The engine is expected to call Notify
// between audio callbacks (spec.md §4.7's "triggered explicitly").
func (g *GarbageWorker) Run() {
	defer close(g.done)
	for {
		select {
		case <-g.wake:
			g.Sweep()
			g.drop()
		case <-g.stop:
			g.Sweep()
			g.drop()
			return
		}
	}
}

// Stop requests shutdown and blocks until Run has returned.
func (g *GarbageWorker) Stop() {
	close(g.stop)
	<-g.done
}

// Sweep runs one pass of the keep/drop decision tree over lastUsedFiles. It
// bails out immediately, doing nothing, if either spin-lock is already held
// — the next Notify will try again. Buffers that a sweep reclaims are held
// in garbageToCollect until drop() releases them outside this call, so a
// reclaim never pays the cost of freeing megabytes of audio memory itself.
func (g *GarbageWorker) Sweep() {
	if !g.lastUsedMutex.TryLock() {
		return
	}
	defer g.lastUsedMutex.Unlock()

	if !g.garbageMutex.TryLock() {
		return
	}

	now := time.Now()
	remaining := g.lastUsedFiles[:0]
	var reclaimed []*audiobuffer.Buffer

	for _, entry := range g.lastUsedFiles {
		switch {
		case len(g.garbageToCollect)+len(reclaimed) >= g.garbageCapacity:
			remaining = append(remaining, entry)
		case entry.Status() == StatusPreloaded:
			// Already reclaimed by an earlier sweep (or never actually
			// started streaming); stale bookkeeping, just drop it.
		case entry.Status() != StatusDone:
			remaining = append(remaining, entry)
		case entry.ReaderCount() != 0:
			remaining = append(remaining, entry)
		case now.Sub(entry.LastViewerLeftAt()) < g.fileClearingPeriod:
			remaining = append(remaining, entry)
		default:
			if buf := entry.reclaimTail(); buf != nil {
				reclaimed = append(reclaimed, buf)
			}
		}
	}

	g.lastUsedFiles = remaining
	g.garbageToCollect = append(g.garbageToCollect, reclaimed...)
	g.garbageMutex.Unlock()
}

// drop releases every buffer a sweep reclaimed, outside the spin-locked
// scan path. In Go this just means dropping the last reference so the
// allocator's GC can reclaim the memory in its own time.
func (g *GarbageWorker) drop() {
	g.garbageMutex.Lock()
	g.garbageToCollect = nil
	g.garbageMutex.Unlock()
}

// PendingCount reports how many entries are awaiting their next sweep;
// exported for tests and stats reporting.
func (g *GarbageWorker) PendingCount() int {
	g.lastUsedMutex.Lock()
	defer g.lastUsedMutex.Unlock()
	return len(g.lastUsedFiles)
}
