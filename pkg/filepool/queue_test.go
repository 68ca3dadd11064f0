package filepool

import (
	"runtime"
	"testing"
	"time"
	"weak"
)

func TestNewLoadQueueRoundsToPowerOf2(t *testing.T) {
	q := NewLoadQueue(5)
	if q.size != 8 {
		t.Fatalf("expected capacity rounded to 8, got %d", q.size)
	}
}

func TestTryPushTryPopRoundTrip(t *testing.T) {
	q := NewLoadQueue(4)
	entry := newTestEntry()
	req := QueuedRequest{WeakEntry: weak.Make(entry), EnqueuedAt: time.Now()}

	if !q.TryPush(req) {
		t.Fatal("expected push to succeed on empty queue")
	}
	if q.Len() != 1 {
		t.Fatalf("expected length 1, got %d", q.Len())
	}

	got, ok := q.TryPop()
	if !ok {
		t.Fatal("expected pop to succeed")
	}
	if got.WeakEntry.Value() != entry {
		t.Fatal("popped request's weak entry doesn't match pushed one")
	}
	if q.Len() != 0 {
		t.Fatalf("expected length 0 after pop, got %d", q.Len())
	}
}

func TestTryPopOnEmptyQueueFails(t *testing.T) {
	q := NewLoadQueue(4)
	if _, ok := q.TryPop(); ok {
		t.Fatal("expected pop on empty queue to fail")
	}
}

func TestTryPushFailsWhenFull(t *testing.T) {
	q := NewLoadQueue(2) // rounds to 2
	for i := 0; i < 2; i++ {
		if !q.TryPush(QueuedRequest{}) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	if q.TryPush(QueuedRequest{}) {
		t.Fatal("expected push to fail once the queue is full")
	}
}

// TestWeakEntryDiesWhenItsOnlyOwnerIsUnreferenced documents the real
// liveness contract: the weak pointer only tracks an object that had a
// genuine owner to begin with (here, a local standing in for the
// registry's map entry for the duration of the test), so collecting that
// owner is what the dispatcher's drop-stale-request path depends on — not
// GC timing on a value nobody ever held onto.
func TestWeakEntryDiesWhenItsOnlyOwnerIsUnreferenced(t *testing.T) {
	q := NewLoadQueue(4)
	func() {
		entry := newTestEntry()
		q.TryPush(QueuedRequest{WeakEntry: weak.Make(entry)})
	}()

	runtime.GC()
	runtime.GC()

	req, ok := q.TryPop()
	if !ok {
		t.Fatal("expected pop to succeed")
	}
	if req.WeakEntry.Value() != nil {
		t.Fatal("expected the weak entry to have died once its only owner went out of scope")
	}
}
