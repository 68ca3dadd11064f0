package filepool

import (
	"os"
	"path/filepath"
	"testing"

	wav "github.com/youpy/go-wav"
)

// writeTestWAV writes a minimal mono/stereo 16-bit PCM WAV fixture, the same
// way pkg/audioreader's own tests do.
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

// newToneFixture writes a mono WAV of n frames (a ramp, so reversal and
// content checks are meaningful) under t.TempDir() and returns its path and
// the root directory to register it against.
func newToneFixture(t *testing.T, name string, n int, rate uint32) (root, relPath string) {
	t.Helper()
	dir := t.TempDir()
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 30000)
	}
	writeTestWAV(t, filepath.Join(dir, name), samples, 1, rate)
	return dir, name
}
