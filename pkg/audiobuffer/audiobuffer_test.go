package audiobuffer

import "testing"

func TestNewAndAddressing(t *testing.T) {
	b := New(2, 8)
	if b.NumChannels() != 2 || b.NumFrames() != 8 {
		t.Fatalf("unexpected dims: channels=%d frames=%d", b.NumChannels(), b.NumFrames())
	}

	b.Set(0, 3, 0.5)
	b.Set(1, 3, -0.5)
	if b.At(0, 3) != 0.5 || b.At(1, 3) != -0.5 {
		t.Fatalf("At/Set mismatch")
	}
}

func TestResetIsConstantTimeAndKeepsCapacity(t *testing.T) {
	b := New(1, 1024)
	b.Set(0, 1000, 1.0)
	b.Reset()

	if b.NumFrames() != 0 {
		t.Fatalf("Reset should zero NumFrames, got %d", b.NumFrames())
	}
	// Capacity is preserved: the backing slice still holds all 1024 samples.
	if len(b.channels[0]) != 1024 {
		t.Fatalf("Reset should keep the 1024-sample allocation, got %d", len(b.channels[0]))
	}
	b.Resize(1, 1024)
	if b.NumFrames() != 1024 {
		t.Fatalf("expected 1024 frames after Resize, got %d", b.NumFrames())
	}
}

func TestCopyFromTruncatesToShorterBuffer(t *testing.T) {
	src := New(2, 10)
	for ch := 0; ch < 2; ch++ {
		for f := 0; f < 10; f++ {
			src.Set(ch, f, float32(ch*100+f))
		}
	}

	dst := New(2, 4)
	n := dst.CopyFrom(src)
	if n != 4 {
		t.Fatalf("expected 4 frames copied, got %d", n)
	}
	if dst.At(1, 3) != 103 {
		t.Fatalf("expected copied value 103, got %v", dst.At(1, 3))
	}
}

func TestChannelSliceReflectsFrameCount(t *testing.T) {
	b := New(1, 16)
	if len(b.Channel(0)) != 16 {
		t.Fatalf("expected channel slice len 16, got %d", len(b.Channel(0)))
	}
}
