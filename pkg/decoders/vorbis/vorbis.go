// Package vorbis wraps github.com/jfreymuth/oggvorbis to decode Ogg/Vorbis
// sample files, rounding out the container set the file pool's AudioReader
// needs to cover (WAV, FLAC, Ogg — spec.md §1).
package vorbis

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// Decoder wraps oggvorbis.Reader to provide Ogg/Vorbis decoding
// capabilities. Implements types.AudioDecoder interface.
type Decoder struct {
	file   *os.File
	reader *oggvorbis.Reader
}

// NewDecoder creates a new Ogg/Vorbis decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens and initializes an Ogg/Vorbis file for decoding.
func (d *Decoder) Open(fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open Ogg/Vorbis file: %w", err)
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode Ogg/Vorbis headers: %w", err)
	}

	d.file = f
	d.reader = reader
	return nil
}

// Close closes the decoder and releases resources.
func (d *Decoder) Close() error {
	d.reader = nil
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// GetFormat returns the audio format. oggvorbis decodes to float32 samples;
// they're reported here at a nominal 16-bit depth since DecodeSamples
// quantizes to int16 PCM to match the rest of the decoder set.
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	if d.reader == nil {
		return 0, 0, 0
	}
	return d.reader.SampleRate(), d.reader.Channels(), 16
}

// DecodeSamples decodes up to 'samples' audio samples into the provided
// buffer, quantizing oggvorbis's float32 output to interleaved int16 PCM.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	channels := d.reader.Channels()
	floatBuf := make([]float32, samples*channels)

	n, err := d.reader.Read(floatBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	samplesDecoded := n / channels
	needBytes := samplesDecoded * channels * 2
	if needBytes > len(audio) {
		samplesDecoded = len(audio) / (channels * 2)
		needBytes = samplesDecoded * channels * 2
	}

	for i := 0; i < samplesDecoded*channels; i++ {
		v := floatBuf[i]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		audio[i*2] = byte(s)
		audio[i*2+1] = byte(s >> 8)
	}

	return samplesDecoded, nil
}
