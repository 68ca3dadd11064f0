package filepool

import (
	"testing"
	"time"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
)

func newTestEntry() *CacheEntry {
	md := FileMetadata{SampleRate: 44100, TotalFrames: 100, Channels: 1}
	preload := audiobuffer.New(1, 10)
	src := SourceInfo{ResolvedPath: "tone.wav", NativeSampleRate: 44100, NativeTotalFrames: 100}
	return newCacheEntry(SampleIdentity{Filename: "tone.wav"}, md, preload, src, 1)
}

func TestNewCacheEntryStartsPreloaded(t *testing.T) {
	e := newTestEntry()
	if e.Status() != StatusPreloaded {
		t.Fatalf("expected StatusPreloaded, got %v", e.Status())
	}
	if e.AvailableFrames() != 0 {
		t.Fatalf("expected 0 available frames, got %d", e.AvailableFrames())
	}
}

func TestCASStatusSingleWinner(t *testing.T) {
	e := newTestEntry()
	wins := 0
	for i := 0; i < 8; i++ {
		if e.CASStatus(StatusPreloaded, StatusStreaming) {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one CAS winner, got %d", wins)
	}
}

func TestPublishAvailableIsMonotonicAsUsed(t *testing.T) {
	e := newTestEntry()
	e.CASStatus(StatusPreloaded, StatusStreaming)
	e.beginStreaming()

	var last uint32
	for _, n := range []uint32{10, 40, 100} {
		e.publishAvailable(n)
		if e.AvailableFrames() < last {
			t.Fatalf("availableFrames went backwards: %d -> %d", last, e.AvailableFrames())
		}
		last = e.AvailableFrames()
	}
	if last != 100 {
		t.Fatalf("expected 100 available frames, got %d", last)
	}
}

func TestReaderCountTracksAcquireRelease(t *testing.T) {
	e := newTestEntry()
	e.AcquireReader()
	e.AcquireReader()
	if e.ReaderCount() != 2 {
		t.Fatalf("expected readerCount 2, got %d", e.ReaderCount())
	}
	e.ReleaseReader()
	if !e.LastViewerLeftAt().IsZero() {
		t.Fatal("lastViewerLeftAt should still be zero with a reader remaining")
	}
	e.ReleaseReader()
	if e.LastViewerLeftAt().IsZero() {
		t.Fatal("expected lastViewerLeftAt to be stamped once readerCount reaches 0")
	}
	if time.Since(e.LastViewerLeftAt()) > time.Second {
		t.Fatal("lastViewerLeftAt should be very recent")
	}
}

func TestReclaimTailResetsStateAndReturnsBuffer(t *testing.T) {
	e := newTestEntry()
	e.CASStatus(StatusPreloaded, StatusStreaming)
	buf := e.beginStreaming()
	e.publishAvailable(100)
	e.CASStatus(StatusStreaming, StatusDone)

	reclaimed := e.reclaimTail()
	if reclaimed != buf {
		t.Fatal("expected reclaimTail to return the buffer that beginStreaming allocated")
	}
	if e.Status() != StatusPreloaded {
		t.Fatalf("expected StatusPreloaded after reclaim, got %v", e.Status())
	}
	if e.AvailableFrames() != 0 {
		t.Fatalf("expected availableFrames reset to 0, got %d", e.AvailableFrames())
	}
	if e.FileData() != nil {
		t.Fatal("expected FileData to be nil after reclaim")
	}
}

func TestSourceAndFactorRoundTrip(t *testing.T) {
	e := newTestEntry()
	if e.Factor() != 1 {
		t.Fatalf("expected factor 1, got %d", e.Factor())
	}
	e.setFactor(2)
	if e.Factor() != 2 {
		t.Fatalf("expected factor 2 after setFactor, got %d", e.Factor())
	}
	if e.Source().ResolvedPath != "tone.wav" {
		t.Fatalf("unexpected source path: %q", e.Source().ResolvedPath)
	}
}
