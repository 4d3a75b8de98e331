package audio

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrDeviceNotFound    = errors.New("audio device not found")
	ErrUnsupportedFormat = errors.New("unsupported stream format")
	ErrAlreadyCapturing  = errors.New("audio capture already started")
	ErrNotCapturing      = errors.New("audio capture not started")
	ErrDeviceClosed      = errors.New("audio device closed")
)

// Encoding tells whether samples are stored as integers or floats
type Encoding int

const (
	EncodingInt Encoding = iota
	EncodingFloat
)

func (e Encoding) String() string {
	if e == EncodingFloat {
		return "float"
	}
	return "int"
}

// StreamFormat describes the negotiated device stream. It is fixed once the
// device is opened and is passed around by value.
type StreamFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Encoding   Encoding
}

// Validate reports whether the format can back a capture session
func (f StreamFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.BitDepth <= 0 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, f.BitDepth)
	}
	return nil
}

// WindowCapacity returns how many interleaved samples cover the given window
func (f StreamFormat) WindowCapacity(window time.Duration) int {
	seconds := int(window / time.Second)
	return f.SampleRate * f.Channels * seconds
}

// Duration converts an interleaved sample count into playback time
func (f StreamFormat) Duration(samples int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := samples / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func (f StreamFormat) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d-bit %s", f.SampleRate, f.Channels, f.BitDepth, f.Encoding)
}

// BatchHandler receives the samples of one device callback. The slice is only
// valid for the duration of the call.
type BatchHandler func(batch []float32)

// Device defines the capture device boundary
type Device interface {
	// Name returns the device name as reported by the audio host
	Name() string

	// Format returns the negotiated stream format
	Format() StreamFormat

	// Start begins delivering batches to handler
	Start(handler BatchHandler) error

	// Stop ends audio capture
	Stop() error
}
