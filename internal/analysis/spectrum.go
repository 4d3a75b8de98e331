package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// maxWindow bounds the FFT size on long clips
	maxWindow = 16384
	// minWindow is the shortest signal worth analysing
	minWindow = 64
	// noiseFloor is the smallest spectral peak reported, relative to window length
	noiseFloor = 1e-4
)

// DominantFrequency returns the strongest frequency of a mono signal, using
// a Hann-windowed FFT over at most maxWindow samples from the middle of the
// signal. It returns 0 for short or silent input.
func DominantFrequency(mono []float64, sampleRate int) float64 {
	if len(mono) < minWindow || sampleRate <= 0 {
		return 0
	}

	n := min(len(mono), maxWindow)
	offset := (len(mono) - n) / 2
	windowed := applyHannWindow(mono[offset : offset+n])

	spectrum := fft.FFTReal(windowed)
	half := spectrum[:len(spectrum)/2]
	binSizeHz := float64(sampleRate) / float64(len(spectrum))

	// Skip the DC bin
	peakBin := 0
	peakMag := 0.0
	for i := 1; i < len(half); i++ {
		if m := cmplx.Abs(half[i]); m > peakMag {
			peakBin, peakMag = i, m
		}
	}
	if peakBin == 0 || peakMag < noiseFloor*float64(n) {
		return 0
	}

	// Quadratic interpolation around the peak bin
	if peakBin+1 < len(half) {
		prev := cmplx.Abs(half[peakBin-1])
		next := cmplx.Abs(half[peakBin+1])
		if denom := prev - 2*peakMag + next; denom != 0 {
			delta := 0.5 * (prev - next) / denom
			return (float64(peakBin) + delta) * binSizeHz
		}
	}
	return float64(peakBin) * binSizeHz
}

// applyHannWindow applies a Hann window to the samples
func applyHannWindow(samples []float64) []float64 {
	windowed := make([]float64, len(samples))
	for i, sample := range samples {
		coeff := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(samples)-1)))
		windowed[i] = sample * coeff
	}
	return windowed
}
