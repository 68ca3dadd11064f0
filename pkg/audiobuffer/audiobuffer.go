// Package audiobuffer provides the owning, deinterleaved float32 sample
// container shared by the decoders, the oversampler and the file pool.
package audiobuffer

import "fmt"

// Buffer owns N channels of float32 samples, stored deinterleaved (one
// contiguous slice per channel) so a reader can address (channel, frame)
// without stride arithmetic. Preload heads and streamed tails are both
// represented with this type; a Buffer never shrinks its channel count
// after Resize, only its logical frame count.
type Buffer struct {
	channels [][]float32
	frames   int
}

// New allocates a Buffer with the given channel count and frame capacity.
func New(numChannels, numFrames int) *Buffer {
	b := &Buffer{}
	b.Resize(numChannels, numFrames)
	return b
}

// Resize reallocates the buffer to hold numChannels channels of numFrames
// frames each. Existing contents are discarded.
func (b *Buffer) Resize(numChannels, numFrames int) {
	if numFrames < 0 {
		numFrames = 0
	}
	b.channels = make([][]float32, numChannels)
	for ch := range b.channels {
		b.channels[ch] = make([]float32, numFrames)
	}
	b.frames = numFrames
}

// Reset clears the logical frame count to zero in O(1) without releasing
// the underlying allocation, so a reused Buffer doesn't re-trigger GC
// pressure on the control thread.
func (b *Buffer) Reset() {
	b.frames = 0
}

// NumChannels returns the number of channels the buffer was allocated with.
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// NumFrames returns the buffer's current logical frame count.
func (b *Buffer) NumFrames() int {
	return b.frames
}

// Channel returns the backing slice for channel ch, sized to NumFrames().
// The caller must not retain it past the next Resize/Reset.
func (b *Buffer) Channel(ch int) []float32 {
	return b.channels[ch][:b.frames]
}

// At returns the sample at (channel, frame).
func (b *Buffer) At(channel, frame int) float32 {
	return b.channels[channel][frame]
}

// Set writes the sample at (channel, frame).
func (b *Buffer) Set(channel, frame int, value float32) {
	b.channels[channel][frame] = value
}

// CopyFrom copies min(frames) samples of every shared channel from src,
// starting at frame 0 in both buffers. It never extends b's capacity.
func (b *Buffer) CopyFrom(src *Buffer) int {
	n := min(b.NumFrames(), src.NumFrames())
	for ch := 0; ch < len(b.channels) && ch < src.NumChannels(); ch++ {
		copy(b.channels[ch][:n], src.Channel(ch)[:n])
	}
	return n
}

// String implements fmt.Stringer for debug logging.
func (b *Buffer) String() string {
	return fmt.Sprintf("audiobuffer{channels=%d frames=%d}", len(b.channels), b.frames)
}
