package filepool

import (
	"sync/atomic"
	"time"
	"weak"
)

// QueuedRequest is a single load request travelling from the audio thread
// to the dispatcher. It holds only a weak reference to the entry it
// targets, not a strong one: the registry's own map is the entry's real
// owner, so once an identity is unregistered (Clear, or a future
// unregister operation) the weak pointer goes nil and the dispatcher
// cheaply discards the stale request instead of doing pointless work for
// an entry nothing cares about anymore (spec.md §9's "Weak identity" note;
// grounded on sfz::FilePool::getFilePromise's std::shared_ptr<FileId>&/
// id.lock(), original_source/src/sfizz/FilePool.cpp:345-363 — there the
// weak pointer is observed against the caller-owned object, never a value
// fabricated solely to populate the queue entry).
type QueuedRequest struct {
	WeakEntry  weak.Pointer[CacheEntry]
	EnqueuedAt time.Time
}

// LoadQueue is a bounded single-producer/single-consumer ring buffer of
// QueuedRequest, built the same way the teacher's AudioFrameRingBuffer was
// (see DESIGN.md): power-of-two capacity, atomic read/write cursors,
// lock-free try_push/try_pop.
//
// TryPush must only be called from the audio thread; TryPop must only be
// called from the dispatcher thread.
type LoadQueue struct {
	buffer   []QueuedRequest
	size     uint64
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// NewLoadQueue creates a LoadQueue with capacity rounded up to the next
// power of 2.
func NewLoadQueue(capacity int) *LoadQueue {
	cap64 := nextPowerOf2(uint64(capacity))
	return &LoadQueue{
		buffer: make([]QueuedRequest, cap64),
		size:   cap64,
		mask:   cap64 - 1,
	}
}

// TryPush attempts a non-blocking, non-allocating push. Returns false if
// the queue is full; this is a survivable loss per spec.md §4.4 — the
// caller keeps running from the preload head.
func (q *LoadQueue) TryPush(req QueuedRequest) bool {
	writePos := q.writePos.Load()
	readPos := q.readPos.Load()
	if q.size-(writePos-readPos) == 0 {
		return false
	}
	q.buffer[writePos&q.mask] = req
	q.writePos.Store(writePos + 1)
	return true
}

// TryPop attempts a non-blocking pop. Returns false if the queue is empty.
func (q *LoadQueue) TryPop() (QueuedRequest, bool) {
	readPos := q.readPos.Load()
	writePos := q.writePos.Load()
	if writePos-readPos == 0 {
		return QueuedRequest{}, false
	}
	req := q.buffer[readPos&q.mask]
	q.readPos.Store(readPos + 1)
	return req, true
}

// Len returns the number of requests currently queued.
func (q *LoadQueue) Len() int {
	return int(q.writePos.Load() - q.readPos.Load())
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
