// Package audioreader supplies the concrete "external collaborator" the
// file pool consumes only through an interface (spec.md §1): decoding of
// WAV/FLAC/Ogg/MP3 containers into deinterleaved float32 blocks, plus
// secondary instrument/wavetable metadata extraction from RIFF chunks.
// It wraps pkg/decoders (the teacher's types.AudioDecoder abstraction) the
// way sfz::AudioReader wraps libsndfile in
// _examples/original_source/src/sfizz/FilePool.cpp.
package audioreader

import (
	"errors"
	"fmt"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
	"github.com/drgolem/samplepool/pkg/decoders"
	"github.com/drgolem/samplepool/pkg/types"
)

// ErrUnsupportedChannels is returned by Open when the decoded file reports
// a channel count outside {1, 2}.
var ErrUnsupportedChannels = errors.New("audioreader: unsupported channel count")

// Instrument carries the basenote/loop information a decoder's embedded
// instrument chunk exposes, mirroring libsndfile's SF_INSTRUMENT.
type Instrument struct {
	HaveRootKey bool
	RootKey     uint8

	HaveLoop  bool
	LoopBegin uint32
	LoopEnd   uint32
}

// Reader decodes a single audio file, optionally reversed, into
// deinterleaved float32 blocks. Equivalent to sfz::AudioReader.
type Reader struct {
	decoder  types.AudioDecoder
	reverse  bool
	channels int
	rate     int
	bits     int
}

// Open decodes fileName and prepares a Reader. Channel counts outside {1,2}
// are rejected, matching getFileInformation's channels != 1 && channels != 2
// check.
func Open(fileName string, reverse bool) (*Reader, error) {
	decoder, err := decoders.NewDecoder(fileName)
	if err != nil {
		return nil, err
	}
	rate, channels, bits := decoder.GetFormat()
	if channels != 1 && channels != 2 {
		decoder.Close()
		return nil, fmt.Errorf("%w: %d for %s", ErrUnsupportedChannels, channels, fileName)
	}
	return &Reader{decoder: decoder, reverse: reverse, channels: channels, rate: rate, bits: bits}, nil
}

// Channels returns the channel count (1 or 2).
func (r *Reader) Channels() int { return r.channels }

// SampleRate returns the native sample rate in Hz.
func (r *Reader) SampleRate() int { return r.rate }

// InstrumentProvider is implemented by decoders able to report embedded
// instrument/loop metadata directly from the container they already
// parsed, the way sfz::AudioReader asks libsndfile for SF_INSTRUMENT
// before ever touching a RIFF chunk itself. It's an optional capability,
// asserted at the point of use rather than forced on every decoder.
type InstrumentProvider interface {
	GetInstrument() (Instrument, bool)
}

// GetInstrument reports instrument/loop metadata if the underlying decoder
// implements InstrumentProvider (spec.md's AudioReader.getInstrument
// operation). None of the wrapped container decoders implement it today,
// so this always returns false for them; GetFileInformation falls back to
// FileMetadataReader.ExtractRiffInstrument in that case.
func (r *Reader) GetInstrument() (Instrument, bool) {
	if provider, ok := r.decoder.(InstrumentProvider); ok {
		return provider.GetInstrument()
	}
	return Instrument{}, false
}

// Close releases the underlying decoder.
func (r *Reader) Close() error {
	if r.decoder == nil {
		return nil
	}
	err := r.decoder.Close()
	r.decoder = nil
	return err
}

// ReadAll decodes frames into a freshly allocated buffer, growing it block
// by block the same way the teacher's decodeAllAudio helper did, since none
// of the wrapped decoders expose a frame count up front. If maxFrames is
// positive, decoding stops once that many
// frames have been produced (used for bounded preload-window reads);
// otherwise it decodes to EOF. Frame order is reversed afterwards if the
// reader was opened with reverse=true.
func (r *Reader) ReadAll(maxFrames int) (*audiobuffer.Buffer, error) {
	const blockFrames = 4096
	bytesPerSample := r.bits / 8
	if bytesPerSample == 0 {
		bytesPerSample = 2
	}
	buf := make([]byte, blockFrames*r.channels*bytesPerSample)

	dst := audiobuffer.New(r.channels, 0)
	written := 0

	for maxFrames <= 0 || written < maxFrames {
		want := blockFrames
		if maxFrames > 0 && maxFrames-written < want {
			want = maxFrames - written
		}

		n, err := r.decoder.DecodeSamples(want, buf)
		if n > 0 {
			growAndAppend(dst, buf, r.channels, bytesPerSample, n)
			written += n
		}
		if err != nil || n == 0 {
			break
		}
	}

	if r.reverse {
		reverseFrames(dst, written)
	}

	return dst, nil
}

// growAndAppend extends dst by n frames and decodes n frames worth of PCM
// bytes from buf into the newly added tail.
func growAndAppend(dst *audiobuffer.Buffer, buf []byte, channels, bytesPerSample, n int) {
	start := dst.NumFrames()
	grown := audiobuffer.New(channels, start+n)
	grown.CopyFrom(dst)
	*dst = *grown
	decodeBlockInto(dst, buf, channels, bytesPerSample, start, n)
}

// decodeBlockInto quantizes bytesPerSample PCM bytes into dst's
// deinterleaved float32 channels, starting at frame offset start.
func decodeBlockInto(dst *audiobuffer.Buffer, buf []byte, channels, bytesPerSample, start, frames int) {
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			base := (f*channels + ch) * bytesPerSample
			var v float32
			switch bytesPerSample {
			case 2:
				s := int16(uint16(buf[base]) | uint16(buf[base+1])<<8)
				v = float32(s) / 32768.0
			case 3:
				raw := int32(buf[base]) | int32(buf[base+1])<<8 | int32(buf[base+2])<<16
				if raw&0x800000 != 0 {
					raw |= ^0xFFFFFF
				}
				v = float32(raw) / 8388608.0
			default:
				s := int16(uint16(buf[base]) | uint16(buf[base+1])<<8)
				v = float32(s) / 32768.0
			}
			dst.Set(ch, start+f, v)
		}
	}
}

// reverseFrames reverses the first n frames of every channel in place.
func reverseFrames(b *audiobuffer.Buffer, n int) {
	for ch := 0; ch < b.NumChannels(); ch++ {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			vi, vj := b.At(ch, i), b.At(ch, j)
			b.Set(ch, i, vj)
			b.Set(ch, j, vi)
		}
	}
}
