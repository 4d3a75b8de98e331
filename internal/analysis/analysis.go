// Package analysis summarizes saved clips: length, loudness and the strongest
// frequency, for reporting after a clip is written.
package analysis

import (
	"math"
	"time"

	"github.com/0xlemi/clipr/internal/audio"
)

// SilenceDB is reported for clips with no measurable level
const SilenceDB = -100.0

// Stats summarizes a clip
type Stats struct {
	Duration   time.Duration
	PeakDB     float64 // dBFS of the loudest sample
	RMSDB      float64 // dBFS of the RMS level
	DominantHz float64 // 0 when no frequency stands out
}

// Summarize measures an interleaved clip
func Summarize(samples []float32, format audio.StreamFormat) Stats {
	rms, peak := Levels(samples)
	return Stats{
		Duration:   format.Duration(len(samples)),
		PeakDB:     ToDB(peak),
		RMSDB:      ToDB(rms),
		DominantHz: DominantFrequency(Mixdown(samples, format.Channels), format.SampleRate),
	}
}

// Levels returns the RMS and peak magnitude of samples
func Levels(samples []float32) (rms, peak float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	sumSquares := 0.0
	for _, sample := range samples {
		v := float64(sample)
		sumSquares += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return math.Sqrt(sumSquares / float64(len(samples))), peak
}

// ToDB converts an amplitude to dBFS, flooring at SilenceDB
func ToDB(amplitude float64) float64 {
	if amplitude <= 0.0000001 { // avoid log(0)
		return SilenceDB
	}
	return 20 * math.Log10(amplitude)
}

// Mixdown averages interleaved channels into a mono signal
func Mixdown(samples []float32, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}

	mono := make([]float64, len(samples)/channels)
	for i := range mono {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(samples[i*channels+ch])
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
