package filepool

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFileMetadataEnd(t *testing.T) {
	m := FileMetadata{TotalFrames: 100}
	if m.End() != 99 {
		t.Fatalf("expected End()==99, got %d", m.End())
	}
	empty := FileMetadata{}
	if empty.End() != 0 {
		t.Fatalf("expected End()==0 for empty metadata, got %d", empty.End())
	}
}

func TestFileMetadataRescale(t *testing.T) {
	m := FileMetadata{SampleRate: 44100, TotalFrames: 1000, LoopBegin: 100, LoopEnd: 900}
	scaled := m.Rescale(1, 2)
	if scaled.SampleRate != 88200 {
		t.Fatalf("expected sampleRate doubled, got %v", scaled.SampleRate)
	}
	if scaled.TotalFrames != 2000 {
		t.Fatalf("expected totalFrames doubled, got %d", scaled.TotalFrames)
	}
	if scaled.LoopBegin != 200 || scaled.LoopEnd != 1800 {
		t.Fatalf("expected loop points doubled, got [%d, %d]", scaled.LoopBegin, scaled.LoopEnd)
	}

	back := scaled.Rescale(2, 1)
	if back.TotalFrames != m.TotalFrames {
		t.Fatalf("expected round trip to restore totalFrames, got %d", back.TotalFrames)
	}
}

func TestGetFileInformationMissingFileIsDecoderError(t *testing.T) {
	_, err := getFileInformation(filepath.Join(t.TempDir(), "missing.wav"), false, 0)
	if !errors.Is(err, ErrDecoderError) {
		t.Fatalf("expected ErrDecoderError, got %v", err)
	}
}
