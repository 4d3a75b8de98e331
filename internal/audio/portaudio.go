package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// DeviceInfo describes a capture-capable device found on the audio host
type DeviceInfo struct {
	Name              string
	HostAPI           string
	InputChannels     int
	DefaultSampleRate float64
	IsDefault         bool
}

// PortAudioDevice implements Device on top of PortAudio. It always captures
// float32 samples at the device's default sample rate.
type PortAudioDevice struct {
	mu              sync.Mutex
	info            *portaudio.DeviceInfo
	stream          *portaudio.Stream
	format          StreamFormat
	framesPerBuffer int
	handler         BatchHandler
	closed          bool
}

// ListDevices returns every device that can be captured from
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	defaultName := ""
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var result []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		hostAPI := ""
		if d.HostApi != nil {
			hostAPI = d.HostApi.Name
		}
		result = append(result, DeviceInfo{
			Name:              d.Name,
			HostAPI:           hostAPI,
			InputChannels:     d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			IsDefault:         d.Name == defaultName,
		})
	}
	return result, nil
}

// OpenPortAudio initializes PortAudio and selects the device called name.
// An empty name picks the host's default input device. channels limits the
// captured channel count (0 uses every input channel of the device).
func OpenPortAudio(name string, channels, framesPerBuffer int) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	info, err := findDevice(name)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	if info.MaxInputChannels < 1 {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %q has no input channels", ErrUnsupportedFormat, info.Name)
	}
	if channels <= 0 || channels > info.MaxInputChannels {
		channels = info.MaxInputChannels
	}

	format := StreamFormat{
		SampleRate: int(info.DefaultSampleRate),
		Channels:   channels,
		BitDepth:   32,
		Encoding:   EncodingFloat,
	}
	if err := format.Validate(); err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return &PortAudioDevice{
		info:            info,
		format:          format,
		framesPerBuffer: framesPerBuffer,
	}, nil
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", ErrDeviceNotFound, err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q not available", ErrDeviceNotFound, name)
}

// Name returns the selected device name
func (d *PortAudioDevice) Name() string {
	return d.info.Name
}

// Format returns the negotiated stream format
func (d *PortAudioDevice) Format() StreamFormat {
	return d.format
}

// Start opens the input stream and begins delivering batches to handler
func (d *PortAudioDevice) Start(handler BatchHandler) error {
	if handler == nil {
		return fmt.Errorf("audio: nil batch handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	if d.stream != nil {
		return ErrAlreadyCapturing
	}

	params := portaudio.HighLatencyParameters(d.info, nil)
	params.Input.Channels = d.format.Channels
	params.SampleRate = float64(d.format.SampleRate)
	if d.framesPerBuffer > 0 {
		params.FramesPerBuffer = d.framesPerBuffer
	}

	d.handler = handler
	stream, err := portaudio.OpenStream(params, d.processAudio)
	if err != nil {
		return fmt.Errorf("open stream on %q: %w", d.info.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream on %q: %w", d.info.Name, err)
	}

	d.stream = stream
	return nil
}

// Stop ends audio capture. The device can be started again until Close.
func (d *PortAudioDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *PortAudioDevice) stopLocked() error {
	if d.stream == nil {
		return ErrNotCapturing
	}

	if err := d.stream.Stop(); err != nil {
		return err
	}
	if err := d.stream.Close(); err != nil {
		return err
	}
	d.stream = nil
	return nil
}

// Close stops any running stream and releases PortAudio. It is safe to call
// more than once and whether or not the device was ever started.
func (d *PortAudioDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	var stopErr error
	if d.stream != nil {
		stopErr = d.stopLocked()
	}
	if err := portaudio.Terminate(); err != nil {
		return err
	}
	return stopErr
}

// processAudio is the PortAudio callback; in is reused by PortAudio after
// the call returns.
func (d *PortAudioDevice) processAudio(in, _ []float32) {
	d.handler(in)
}
