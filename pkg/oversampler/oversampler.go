// Package oversampler streams decoded audio into a destination buffer at an
// integer upsampling ratio, mirroring the external Oversampler interface of
// sfz::FilePool (original_source/src/sfizz/FilePool.cpp) while reusing the
// teacher's own resampling dependency (cmd/transform.go's use of
// github.com/zaf/resample).
package oversampler

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/zaf/resample"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
)

// Oversampler streams a fully-decoded source buffer into a destination
// buffer at an integer ratio, optionally reporting progress through a
// callback so the caller can update a monotonically increasing
// "available frames" counter as blocks land.
type Oversampler interface {
	// Stream resamples src (sampleRate sampleRateHz) into dst at the given
	// integer ratio. dst must already be sized to hold src.NumFrames()*ratio
	// frames. onBlock, if non-nil, is invoked after each decoded block with
	// the cumulative number of destination frames written so far.
	Stream(dst *audiobuffer.Buffer, src *audiobuffer.Buffer, sampleRateHz int, ratio int, onBlock func(framesSoFar int)) error
}

// SoxResampler implements Oversampler on top of github.com/zaf/resample's
// SoX-based high quality resampler. When ratio == 1 it copies src into dst
// without resampling.
type SoxResampler struct {
	// BlockFrames controls how many source frames are fed to the resampler
	// between onBlock callbacks (each callback therefore reports roughly
	// BlockFrames*ratio more destination frames); zero lets Stream default
	// it to 4096.
	BlockFrames int
}

// NewSoxResampler constructs a SoxResampler with the standard block size
// used for preload/tail streaming (matches the teacher transform command's
// read granularity, cmd/transform.go's bufferSamples constant).
func NewSoxResampler() *SoxResampler {
	return &SoxResampler{BlockFrames: 4096}
}

func (r *SoxResampler) Stream(dst *audiobuffer.Buffer, src *audiobuffer.Buffer, sampleRateHz int, ratio int, onBlock func(framesSoFar int)) error {
	if ratio <= 0 {
		return fmt.Errorf("oversampler: ratio must be positive, got %d", ratio)
	}
	channels := src.NumChannels()
	if channels != dst.NumChannels() {
		return fmt.Errorf("oversampler: channel mismatch src=%d dst=%d", channels, dst.NumChannels())
	}

	if ratio == 1 {
		n := dst.CopyFrom(src)
		if onBlock != nil {
			onBlock(n)
		}
		return nil
	}

	inBytes := interleaveToInt16(src, channels)

	var out bytes.Buffer
	bw := bufio.NewWriter(&out)

	resampler, err := resample.New(
		bw,
		float64(sampleRateHz),
		float64(sampleRateHz*ratio),
		channels,
		resample.I16,
		resample.HighQ,
	)
	if err != nil {
		return fmt.Errorf("oversampler: failed to create resampler: %w", err)
	}

	blockBytes := r.blockFrames() * channels * 2
	if blockBytes <= 0 {
		blockBytes = len(inBytes)
	}

	framesSoFar := 0
	for off := 0; off < len(inBytes); off += blockBytes {
		end := off + blockBytes
		if end > len(inBytes) {
			end = len(inBytes)
		}
		if _, err := resampler.Write(inBytes[off:end]); err != nil {
			resampler.Close()
			return fmt.Errorf("oversampler: resample write failed: %w", err)
		}
		if err := bw.Flush(); err != nil {
			resampler.Close()
			return fmt.Errorf("oversampler: flush failed: %w", err)
		}
		framesSoFar = deinterleaveFromInt16(dst, out.Bytes(), channels, framesSoFar)
		if onBlock != nil {
			onBlock(framesSoFar)
		}
	}

	if err := resampler.Close(); err != nil {
		return fmt.Errorf("oversampler: resample close failed: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("oversampler: final flush failed: %w", err)
	}
	framesSoFar = deinterleaveFromInt16(dst, out.Bytes(), channels, framesSoFar)
	if onBlock != nil {
		onBlock(framesSoFar)
	}

	return nil
}

func (r *SoxResampler) blockFrames() int {
	if r.BlockFrames > 0 {
		return r.BlockFrames
	}
	return 4096
}

// interleaveToInt16 quantizes a deinterleaved float32 buffer into
// interleaved 16-bit PCM bytes, the wire format the SoX resampler expects.
func interleaveToInt16(src *audiobuffer.Buffer, channels int) []byte {
	frames := src.NumFrames()
	out := make([]byte, frames*channels*2)
	idx := 0
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			v := src.At(ch, f)
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			s := int16(v * 32767)
			out[idx] = byte(s)
			out[idx+1] = byte(s >> 8)
			idx += 2
		}
	}
	return out
}

// deinterleaveFromInt16 writes any newly available interleaved 16-bit PCM
// bytes (beyond framesAlready) into dst starting at that frame offset, and
// returns the new total number of frames written.
func deinterleaveFromInt16(dst *audiobuffer.Buffer, pcm []byte, channels int, framesAlready int) int {
	frameBytes := channels * 2
	totalFrames := len(pcm) / frameBytes
	if totalFrames <= framesAlready {
		return framesAlready
	}
	if totalFrames > dst.NumFrames() {
		totalFrames = dst.NumFrames()
	}
	for f := framesAlready; f < totalFrames; f++ {
		base := f * frameBytes
		for ch := 0; ch < channels; ch++ {
			lo := pcm[base+ch*2]
			hi := pcm[base+ch*2+1]
			s := int16(uint16(lo) | uint16(hi)<<8)
			dst.Set(ch, f, float32(s)/32768.0)
		}
	}
	return totalFrames
}
