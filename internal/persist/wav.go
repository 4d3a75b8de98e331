package persist

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/0xlemi/clipr/internal/audio"
)

// RIFF format tags
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// Encoder writes a clip to a container file
type Encoder interface {
	// Extension is the file extension without the dot
	Extension() string

	// Encode writes samples in format to path
	Encode(path string, format audio.StreamFormat, samples []float32) error
}

// WAVEncoder writes WAV files. With BitDepth 0 the file matches the captured
// stream format: 32-bit float streams become IEEE float WAVs holding the
// samples bit for bit. A BitDepth of 16, 24 or 32 forces integer linear PCM;
// float samples in [-1, 1] are then scaled to BitDepth and clipped.
type WAVEncoder struct {
	BitDepth int
}

// NewWAVEncoder returns an encoder for the stream's own format (0) or for
// 16, 24 or 32-bit integer output
func NewWAVEncoder(bitDepth int) (*WAVEncoder, error) {
	switch bitDepth {
	case 0, 16, 24, 32:
		return &WAVEncoder{BitDepth: bitDepth}, nil
	}
	return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
}

// Extension returns "wav"
func (e *WAVEncoder) Extension() string { return "wav" }

// Encode writes the WAV to a temporary file next to path and renames it into
// place, so a partially written clip never shows up under its final name.
func (e *WAVEncoder) Encode(path string, format audio.StreamFormat, samples []float32) error {
	if err := format.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".recorded-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if err := e.write(f, format, samples); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (e *WAVEncoder) write(f *os.File, format audio.StreamFormat, samples []float32) error {
	bitDepth, wavFormat, data := e.layout(format, samples)
	enc := wav.NewEncoder(f, format.SampleRate, bitDepth, format.Channels, wavFormat)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// layout picks the on-disk sample layout for format
func (e *WAVEncoder) layout(format audio.StreamFormat, samples []float32) (bitDepth, wavFormat int, data []int) {
	bitDepth = e.BitDepth
	if bitDepth == 0 {
		if format.Encoding == audio.EncodingFloat && format.BitDepth == 32 {
			return 32, wavFormatFloat, floatBits(samples)
		}
		bitDepth = format.BitDepth
		switch bitDepth {
		case 16, 24, 32:
		default:
			bitDepth = 32
		}
	}
	return bitDepth, wavFormatPCM, quantize(samples, bitDepth)
}

// floatBits carries IEEE float samples through the integer buffer unchanged;
// the 32-bit writer stores each value as its low four bytes.
func floatBits(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(int32(math.Float32bits(s)))
	}
	return out
}

// quantize scales float samples to signed integers of the given bit depth
func quantize(samples []float32, bitDepth int) []int {
	maxValue := float64(int64(1)<<(bitDepth-1) - 1)
	out := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int(math.Round(v * maxValue))
	}
	return out
}
