package filepool

import (
	"sync/atomic"
	"time"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
)

// Status is the CacheEntry state machine (spec.md §3):
//
//	Invalid    -> Preloaded (by registrar)
//	Preloaded  -> Streaming (by loader, CAS)
//	Streaming  -> Done      (by same loader)
//	Done       -> Preloaded (by GC, tail dropped)
type Status int32

const (
	StatusInvalid Status = iota
	StatusPreloaded
	StatusStreaming
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "Invalid"
	case StatusPreloaded:
		return "Preloaded"
	case StatusStreaming:
		return "Streaming"
	case StatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// SourceInfo is the immutable decode recipe a loader needs to stream an
// entry's file independently of the registry: where it lives on disk, the
// reverse flag, and its native (F=1) rate/length so the loader can recompute
// the currently-wanted oversampled frame count without reaching back into
// the registry's bookkeeping.
type SourceInfo struct {
	ResolvedPath      string
	Reversed          bool
	NativeSampleRate  float64
	NativeTotalFrames uint32
}

// CacheEntry is the per-sample record: metadata, preload buffer,
// streamed-tail buffer, reader count, status, timestamps (spec.md §3).
//
// Concurrency discipline:
//   - Metadata, preloaded and fileData are published through atomic
//     pointers so the control thread (registrar/GC) can swap them without
//     locking out concurrent readers; once published, a given *audiobuffer.Buffer
//     is never mutated in place except for fileData's in-flight tail, whose
//     partial visibility is governed by AvailableFrames.
//   - AvailableFrames, status and readerCount are plain atomics accessed
//     without any lock from every thread.
type CacheEntry struct {
	identity SampleIdentity
	source   atomic.Pointer[SourceInfo]

	metadata  atomic.Pointer[FileMetadata]
	preloaded atomic.Pointer[audiobuffer.Buffer]
	fileData  atomic.Pointer[audiobuffer.Buffer]

	availableFrames atomic.Uint32
	status          atomic.Int32
	readerCount     atomic.Int32
	factor          atomic.Int32

	lastViewerLeftAt atomic.Int64 // unix nanoseconds; 0 means "never had a reader yet"
}

func newCacheEntry(id SampleIdentity, md FileMetadata, preloaded *audiobuffer.Buffer, src SourceInfo, factor int) *CacheEntry {
	e := &CacheEntry{identity: id}
	e.metadata.Store(&md)
	e.preloaded.Store(preloaded)
	e.source.Store(&src)
	e.status.Store(int32(StatusPreloaded))
	e.factor.Store(int32(factor))
	return e
}

// Source returns the entry's immutable decode recipe.
func (e *CacheEntry) Source() SourceInfo {
	if s := e.source.Load(); s != nil {
		return *s
	}
	return SourceInfo{}
}

// Factor returns the oversampling factor in effect, as last set by the
// registry's setOversamplingFactor.
func (e *CacheEntry) Factor() int32 { return e.factor.Load() }

func (e *CacheEntry) setFactor(f int) { e.factor.Store(int32(f)) }

// Identity returns the entry's sample identity.
func (e *CacheEntry) Identity() SampleIdentity { return e.identity }

// Metadata returns the entry's current metadata snapshot.
func (e *CacheEntry) Metadata() FileMetadata {
	if m := e.metadata.Load(); m != nil {
		return *m
	}
	return FileMetadata{}
}

func (e *CacheEntry) setMetadata(md FileMetadata) { e.metadata.Store(&md) }

// PreloadedData returns the resident preload head buffer.
func (e *CacheEntry) PreloadedData() *audiobuffer.Buffer { return e.preloaded.Load() }

func (e *CacheEntry) setPreloadedData(b *audiobuffer.Buffer) { e.preloaded.Store(b) }

// FileData returns the streamed-tail buffer, or nil if none has been
// allocated yet (status < Streaming).
func (e *CacheEntry) FileData() *audiobuffer.Buffer { return e.fileData.Load() }

// AvailableFrames returns the number of frames of FileData that are safe
// to read (acquire-ordered; Go atomics are always sequentially consistent,
// which subsumes acquire/release).
func (e *CacheEntry) AvailableFrames() uint32 { return e.availableFrames.Load() }

// Status returns the entry's current state.
func (e *CacheEntry) Status() Status { return Status(e.status.Load()) }

// CASStatus attempts the CAS transition from 'from' to 'to', returning
// whether it succeeded.
func (e *CacheEntry) CASStatus(from, to Status) bool {
	return e.status.CompareAndSwap(int32(from), int32(to))
}

// ReaderCount returns the number of voices currently holding a borrow.
func (e *CacheEntry) ReaderCount() int32 { return e.readerCount.Load() }

// AcquireReader increments the reader count; wait-free, audio-thread-safe.
func (e *CacheEntry) AcquireReader() {
	e.readerCount.Add(1)
}

// ReleaseReader decrements the reader count and, on transition to zero,
// stamps lastViewerLeftAt.
func (e *CacheEntry) ReleaseReader() {
	if e.readerCount.Add(-1) == 0 {
		e.lastViewerLeftAt.Store(time.Now().UnixNano())
	}
}

// LastViewerLeftAt returns the timestamp of the last reader-count
// transition to zero, or the zero Time if none has occurred yet.
func (e *CacheEntry) LastViewerLeftAt() time.Time {
	ns := e.lastViewerLeftAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// beginStreaming allocates the tail buffer sized to the entry's current
// totalFrames and publishes it, ready for the loader to fill in place
// while advancing availableFrames. Must only be called by the loader that
// just won the Preloaded->Streaming CAS.
func (e *CacheEntry) beginStreaming() *audiobuffer.Buffer {
	md := e.Metadata()
	buf := audiobuffer.New(int(md.Channels), int(md.TotalFrames))
	e.fileData.Store(buf)
	e.availableFrames.Store(0)
	return buf
}

// publishAvailable advances availableFrames. Writes to fileData for
// [0, n) must happen-before this call (spec.md §4.6 ordering requirement);
// since Go's atomics are sequentially consistent this store is sufficient
// as the publication barrier.
func (e *CacheEntry) publishAvailable(n uint32) {
	e.availableFrames.Store(n)
}

// reclaimTail drops the streamed tail and returns the entry to Preloaded,
// per the garbage worker's contract (spec.md §4.7). Returns the buffer
// that was reclaimed so the caller can free it off the audio-thread-adjacent
// lock path.
func (e *CacheEntry) reclaimTail() *audiobuffer.Buffer {
	old := e.fileData.Swap(nil)
	e.availableFrames.Store(0)
	e.status.Store(int32(StatusPreloaded))
	return old
}
