package audioreader

import (
	"os"
	"path/filepath"
	"testing"

	wav "github.com/youpy/go-wav"
)

func writeTestWAV(t *testing.T, path string, samples []int16, channels int, rate uint32) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	numSamples := uint32(len(samples) / channels)
	w := wav.NewWriter(f, numSamples, uint16(channels), rate, 16)

	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		raw[i*2] = byte(s)
		raw[i*2+1] = byte(s >> 8)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatal(err)
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"), false)
	if err == nil {
		t.Fatal("expected error opening missing file")
	}
}

func TestReadAllDecodesMonoWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	samples := []int16{100, -200, 300, -400, 500}
	writeTestWAV(t, path, samples, 1, 44100)

	r, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.Channels() != 1 {
		t.Fatalf("expected 1 channel, got %d", r.Channels())
	}
	if r.SampleRate() != 44100 {
		t.Fatalf("expected 44100 Hz, got %d", r.SampleRate())
	}

	buf, err := r.ReadAll(0)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if buf.NumFrames() != len(samples) {
		t.Fatalf("expected %d frames, got %d", len(samples), buf.NumFrames())
	}
}

func TestReadAllReversesWhenRequested(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	samples := []int16{1000, 2000, 3000}
	writeTestWAV(t, path, samples, 1, 44100)

	r, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	buf, err := r.ReadAll(0)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if buf.NumFrames() != 3 {
		t.Fatalf("expected 3 frames, got %d", buf.NumFrames())
	}
	// First decoded sample (1000) should now be last.
	first := buf.At(0, 0)
	last := buf.At(0, 2)
	if first < last {
		t.Fatalf("expected reversed order, got first=%v last=%v", first, last)
	}
}

func TestGetFileInformationReportsShapeWithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.wav")
	samples := []int16{1, 2, 3, 4, 5, 6, 7, 8}
	writeTestWAV(t, path, samples, 2, 48000)

	info, err := GetFileInformation(path, false)
	if err != nil {
		t.Fatalf("GetFileInformation failed: %v", err)
	}
	if info.Channels != 2 {
		t.Fatalf("expected 2 channels, got %d", info.Channels)
	}
	if info.SampleRate != 48000 {
		t.Fatalf("expected 48000 Hz, got %v", info.SampleRate)
	}
	if info.TotalFrames != 4 {
		t.Fatalf("expected 4 frames, got %d", info.TotalFrames)
	}
	if info.HasLoop || info.HaveWavetable {
		t.Fatal("plain WAV should report no instrument/wavetable metadata")
	}
}
