package filepool

import (
	"errors"

	"github.com/drgolem/samplepool/pkg/audioreader"
)

// WavetableInfo mirrors audioreader.WavetableInfo; re-exported here so
// callers of this package don't need to import pkg/audioreader directly
// for the metadata shape.
type WavetableInfo = audioreader.WavetableInfo

// FileMetadata is the per-sample metadata record (spec.md §3). end =
// totalFrames - 1. When an oversampling factor F is in effect, sampleRate,
// end, loopBegin and loopEnd are all multiplied by F and totalFrames
// becomes totalFrames*F; Rescale returns a copy with that transformation
// applied.
type FileMetadata struct {
	SampleRate  float64
	TotalFrames uint32
	Channels    uint8

	HaveRootKey bool
	RootKey     uint8

	HasLoop   bool
	LoopBegin uint32
	LoopEnd   uint32

	MaxOffset uint32

	HaveWavetable bool
	Wavetable     WavetableInfo
}

// End returns totalFrames - 1, or 0 for an empty sample.
func (m FileMetadata) End() uint32 {
	if m.TotalFrames == 0 {
		return 0
	}
	return m.TotalFrames - 1
}

// Rescale returns a copy of m with every oversampling-sensitive field
// scaled by the ratio newFactor/oldFactor (spec.md §4.3 setOversamplingFactor).
func (m FileMetadata) Rescale(oldFactor, newFactor int) FileMetadata {
	if oldFactor <= 0 {
		oldFactor = 1
	}
	if newFactor <= 0 {
		newFactor = 1
	}
	ratio := float64(newFactor) / float64(oldFactor)

	out := m
	out.SampleRate = m.SampleRate * ratio
	out.TotalFrames = uint32(float64(m.TotalFrames) * ratio)
	out.LoopBegin = uint32(float64(m.LoopBegin) * ratio)
	out.LoopEnd = uint32(float64(m.LoopEnd) * ratio)
	return out
}

// getFileInformation opens a reader (respecting the reverse flag), rejects
// unsupported channel counts, and attempts instrument/wavetable extraction.
// Absence of metadata is not an error (spec.md §4.2).
func getFileInformation(resolvedPath string, reversed bool, maxOffset uint32) (FileMetadata, error) {
	info, err := audioreader.GetFileInformation(resolvedPath, reversed)
	if err != nil {
		if errors.Is(err, audioreader.ErrUnsupportedChannels) {
			return FileMetadata{}, ErrUnsupportedChannelCount
		}
		return FileMetadata{}, ErrDecoderError
	}

	return FileMetadata{
		SampleRate:    info.SampleRate,
		TotalFrames:   info.TotalFrames,
		Channels:      info.Channels,
		HaveRootKey:   info.HaveRootKey,
		RootKey:       info.RootKey,
		HasLoop:       info.HasLoop,
		LoopBegin:     info.LoopBegin,
		LoopEnd:       info.LoopEnd,
		MaxOffset:     maxOffset,
		HaveWavetable: info.HaveWavetable,
		Wavetable:     info.Wavetable,
	}, nil
}
