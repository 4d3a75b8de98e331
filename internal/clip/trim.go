package clip

// Trim returns samples[start:end+1] where start and end are the first and last
// samples whose magnitude reaches threshold. ok is false when every sample is
// below the threshold.
func Trim(samples []float32, threshold float32) (trimmed []float32, ok bool) {
	start, end, ok := bounds(samples, threshold)
	if !ok {
		return nil, false
	}
	return samples[start : end+1], true
}

// TrimFrames trims like Trim but widens the bounds to whole interleaved
// frames so the channel order of the result is preserved.
func TrimFrames(samples []float32, channels int, threshold float32) ([]float32, bool) {
	if channels <= 1 {
		return Trim(samples, threshold)
	}

	start, end, ok := bounds(samples, threshold)
	if !ok {
		return nil, false
	}

	start -= start % channels
	end = end - end%channels + channels
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end], true
}

// IsSilent reports whether no sample reaches threshold
func IsSilent(samples []float32, threshold float32) bool {
	_, _, ok := bounds(samples, threshold)
	return !ok
}

func bounds(samples []float32, threshold float32) (start, end int, ok bool) {
	start = -1
	for i, s := range samples {
		if abs(s) >= threshold {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	end = start
	for i := len(samples) - 1; i > start; i-- {
		if abs(samples[i]) >= threshold {
			end = i
			break
		}
	}
	return start, end, true
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
