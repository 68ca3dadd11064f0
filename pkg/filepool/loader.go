package filepool

import (
	"time"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
	"github.com/drgolem/samplepool/pkg/audioreader"
	"github.com/drgolem/samplepool/pkg/oversampler"
)

// loaderStabiliseAttempts and loaderStabiliseInterval bound the spin-wait a
// loader performs for an entry to leave StatusInvalid before giving up
// (spec.md §4.6 step 2). In practice every entry reaching the queue was
// already constructed at StatusPreloaded by the registrar, so this spin
// almost never iterates; it exists for the same reason sfizz's FileLoader
// waits on a condition variable before touching a freshly inserted slot.
const (
	loaderStabiliseAttempts = 1024
	loaderStabiliseInterval = 100 * time.Microsecond
)

// runLoaderJob executes one background load (spec.md §4.6): stabilise,
// win the Preloaded->Streaming CAS, stream the whole file into the tail
// buffer while advancing availableFrames block by block, mark Done, log the
// wait/load durations, and hand the identity to the garbage worker so it's
// eligible for a future keep/drop sweep.
func runLoaderJob(entry *CacheEntry, resampler oversampler.Oversampler, logger Logger, gw *GarbageWorker, enqueuedAt time.Time) {
	wait := time.Since(enqueuedAt)
	started := time.Now()
	name := entry.Identity().String()

	for i := 0; i < loaderStabiliseAttempts && entry.Status() == StatusInvalid; i++ {
		time.Sleep(loaderStabiliseInterval)
	}
	if entry.Status() == StatusInvalid {
		logger.LogLoadError(name, ErrStuckInvalidState)
		return
	}
	if entry.Status() != StatusPreloaded {
		// Already streaming or done (another loader beat us, or the entry
		// was reclaimed and re-preloaded); nothing to do.
		return
	}
	if !entry.CASStatus(StatusPreloaded, StatusStreaming) {
		return
	}

	src := entry.Source()
	tail := entry.beginStreaming()

	written, err := streamSourceInto(tail, src, int(entry.Factor()), resampler, func(framesSoFar int) {
		entry.publishAvailable(uint32(framesSoFar))
	})
	if err != nil {
		logger.LogLoadError(name, err)
		entry.reclaimTail()
		return
	}

	entry.publishAvailable(uint32(written))
	entry.CASStatus(StatusStreaming, StatusDone)

	logger.LogFileTime(wait, time.Since(started), written, name)
	if gw != nil {
		gw.markUsed(entry)
	}
}

// streamSourceInto decodes src's file to completion and resamples it into
// dst at the given factor, invoking onBlock after each block is written so
// the caller can publish availableFrames incrementally rather than only at
// the very end.
func streamSourceInto(dst *audiobuffer.Buffer, src SourceInfo, factor int, resampler oversampler.Oversampler, onBlock func(int)) (int, error) {
	reader, err := audioreader.Open(src.ResolvedPath, src.Reversed)
	if err != nil {
		return 0, ErrDecoderError
	}
	defer reader.Close()

	native, err := reader.ReadAll(0)
	if err != nil {
		return 0, ErrDecoderError
	}

	if factor <= 1 {
		n := dst.CopyFrom(native)
		onBlock(n)
		return n, nil
	}

	if err := resampler.Stream(dst, native, int(src.NativeSampleRate), factor, onBlock); err != nil {
		return 0, ErrDecoderError
	}
	return dst.NumFrames(), nil
}
