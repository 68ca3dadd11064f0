package mp3

import (
	"errors"
	"fmt"
	"io"
	"os"

	mp3dec "github.com/imcarsen/go-mp3"
)

// Decoder wraps github.com/imcarsen/go-mp3 to provide MP3 decoding
// capabilities. Implements types.AudioDecoder interface.
//
// go-mp3 always exposes stereo 16-bit PCM output regardless of the source
// encoding, which is why Channels()/Encoding() are fixed rather than read
// back from the stream.
type Decoder struct {
	file    *os.File
	decoder *mp3dec.Decoder
	rate    int
}

// NewDecoder creates a new MP3 decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// GetFormat returns the audio format (rate, channels, bits per sample)
func (d *Decoder) GetFormat() (int, int, int) {
	return d.rate, 2, 16
}

// DecodeSamples decodes the specified number of samples into the audio buffer
// Returns the number of samples decoded (not bytes)
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	const bytesPerSample = 2 * 2 // stereo, 16-bit
	need := samples * bytesPerSample
	if len(audio) < need {
		need = len(audio) - (len(audio) % bytesPerSample)
	}

	read := 0
	for read < need {
		n, err := d.decoder.Read(audio[read:need])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if read == 0 {
				return 0, err
			}
			break
		}
		if n == 0 {
			break
		}
	}

	return read / bytesPerSample, nil
}

// Open opens and initializes an MP3 file for decoding
func (d *Decoder) Open(fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	decoder, err := mp3dec.NewDecoder(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	d.file = f
	d.decoder = decoder
	d.rate = decoder.SampleRate()

	return nil
}

// Close closes the decoder and releases resources
func (d *Decoder) Close() error {
	d.decoder = nil
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Rate returns the sample rate in Hz
func (d *Decoder) Rate() int {
	return d.rate
}

// Channels returns the number of audio channels (always 2, see Decoder doc)
func (d *Decoder) Channels() int {
	return 2
}

// Encoding returns the bits per sample (always 16, see Decoder doc)
func (d *Decoder) Encoding() int {
	return 16
}
