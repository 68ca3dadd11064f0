package audioreader

import (
	"io"
	"os"

	riff "github.com/youpy/go-riff"
)

// WavetableInfo describes a wavetable-style sample's fixed single-cycle
// frame length, when the RIFF container advertises one.
type WavetableInfo struct {
	OneShot     bool
	FrameLength uint32
}

// smplChunkID is the four-byte FOURCC of the RIFF sampler chunk that
// carries MIDI unity note and loop span information.
var smplChunkID = [4]byte{'s', 'm', 'p', 'l'}

// wsmpChunkID is the FOURCC some wavetable-oriented tools (e.g. DLS/SF2
// adjacent tooling) use to mark a fixed wavetable frame length.
var wsmpChunkID = [4]byte{'w', 's', 'm', 'p'}

// FileMetadataReader walks a file's RIFF chunk list looking for embedded
// instrument/loop data, the Go counterpart of sfz::FileMetadataReader
// (original_source/src/sfizz/FilePool.cpp:241-254). It is a secondary
// source, consulted only when the primary decoder didn't already surface
// an instrument chunk.
type FileMetadataReader struct {
	file   *os.File
	reader *riff.Reader
}

// Open opens fileName and prepares its RIFF chunk reader. Returns false
// (no error) for files that aren't RIFF containers at all — absence of
// metadata is never treated as a failure here, matching the spec's
// "absence is not an error" rule for getFileInformation.
func (m *FileMetadataReader) Open(fileName string) bool {
	f, err := os.Open(fileName)
	if err != nil {
		return false
	}

	reader, _, err := riff.NewReader(f)
	if err != nil {
		f.Close()
		return false
	}

	m.file = f
	m.reader = reader
	return true
}

// Close releases the underlying file handle.
func (m *FileMetadataReader) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file, m.reader = nil, nil
	return err
}

// ExtractRiffInstrument scans for a "smpl" chunk and, if found, fills in
// the root key and first loop span. Returns false if no such chunk exists.
func (m *FileMetadataReader) ExtractRiffInstrument() (Instrument, bool) {
	var inst Instrument
	if m.reader == nil {
		return inst, false
	}

	for {
		id, chunkLen, chunkData, err := m.reader.Next()
		if err != nil {
			return inst, false
		}
		if id != smplChunkID {
			continue
		}
		if chunkLen < 36 {
			return inst, false
		}

		payload := make([]byte, chunkLen)
		if _, err := io.ReadFull(chunkData, payload); err != nil {
			return inst, false
		}

		unityNote := payload[12]
		numLoops := le32(payload[28:32])

		inst.HaveRootKey = true
		inst.RootKey = unityNote

		if numLoops > 0 && len(payload) >= 60 {
			loopStart := le32(payload[44:48])
			loopEnd := le32(payload[48:52])
			inst.HaveLoop = true
			inst.LoopBegin = loopStart
			inst.LoopEnd = loopEnd
		}

		return inst, true
	}
}

// ExtractWavetableInfo scans for a "wsmp" chunk describing a fixed
// single-cycle frame length. Returns false if no such chunk exists.
func (m *FileMetadataReader) ExtractWavetableInfo() (WavetableInfo, bool) {
	var wt WavetableInfo
	if m.reader == nil {
		return wt, false
	}

	for {
		id, chunkLen, chunkData, err := m.reader.Next()
		if err != nil {
			return wt, false
		}
		if id != wsmpChunkID {
			continue
		}
		if chunkLen < 8 {
			return wt, false
		}

		payload := make([]byte, chunkLen)
		if _, err := io.ReadFull(chunkData, payload); err != nil {
			return wt, false
		}

		wt.FrameLength = le32(payload[0:4])
		wt.OneShot = payload[4] != 0
		return wt, true
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
