package filepool

import (
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/drgolem/samplepool/pkg/oversampler"
	"github.com/drgolem/samplepool/pkg/workerpool"
)

func TestDispatcherStreamsQueuedEntryToDone(t *testing.T) {
	root, name := newToneFixture(t, "tone.wav", 2000, 44100)
	reg := NewPreloadRegistry(root, 100, 1)
	id, _, err := reg.PreloadFile(SampleIdentity{Filename: name}, 0)
	if err != nil {
		t.Fatalf("PreloadFile failed: %v", err)
	}
	entry, _ := reg.Lookup(id)

	queue := NewLoadQueue(4)
	pool := workerpool.New(2)
	d := NewDispatcher(queue, pool, oversampler.NewSoxResampler(), NewNopLogger(), nil)
	go d.Run()
	defer d.Stop()

	queue.TryPush(QueuedRequest{WeakEntry: weak.Make(entry), EnqueuedAt: time.Now()})
	d.Notify()

	deadline := time.Now().Add(5 * time.Second)
	for entry.Status() != StatusDone {
		if time.Now().After(deadline) {
			t.Fatalf("entry never reached StatusDone, stuck at %v", entry.Status())
		}
		time.Sleep(time.Millisecond)
	}
	if entry.AvailableFrames() != 2000 {
		t.Fatalf("expected availableFrames==2000, got %d", entry.AvailableFrames())
	}
}

// TestDispatcherDropsRequestForUnregisteredEntry covers the real drop
// path: an entry that was never registered in any registry (so nothing
// owns it once this closure returns) dies under GC, and the dispatcher
// must discard the stale request rather than submit a loader job for it.
func TestDispatcherDropsRequestForUnregisteredEntry(t *testing.T) {
	queue := NewLoadQueue(4)
	pool := workerpool.New(2)
	d := NewDispatcher(queue, pool, oversampler.NewSoxResampler(), NewNopLogger(), nil)

	func() {
		orphan := newTestEntry()
		queue.TryPush(QueuedRequest{WeakEntry: weak.Make(orphan), EnqueuedAt: time.Now()})
	}()

	runtime.GC()
	runtime.GC()
	d.drain()

	d.mu.Lock()
	inFlight := len(d.inFlight)
	d.mu.Unlock()
	if inFlight != 0 {
		t.Fatalf("expected no in-flight jobs for a request whose entry died, got %d", inFlight)
	}
}

func TestDispatcherWaitBlocksUntilJobsComplete(t *testing.T) {
	root, name := newToneFixture(t, "tone.wav", 300, 44100)
	reg := NewPreloadRegistry(root, 50, 1)
	id, _, err := reg.PreloadFile(SampleIdentity{Filename: name}, 0)
	if err != nil {
		t.Fatalf("PreloadFile failed: %v", err)
	}
	entry, _ := reg.Lookup(id)

	queue := NewLoadQueue(4)
	pool := workerpool.New(2)
	d := NewDispatcher(queue, pool, oversampler.NewSoxResampler(), NewNopLogger(), nil)

	queue.TryPush(QueuedRequest{WeakEntry: weak.Make(entry), EnqueuedAt: time.Now()})
	d.drain()
	d.Wait()

	if entry.Status() != StatusDone {
		t.Fatalf("expected StatusDone after Wait returns, got %v", entry.Status())
	}
}
