package tempo

// Downmix collapses interleaved frames into a mono sequence.
//
// Mono input is returned as-is (same backing array). For two or more
// channels each output sample is the mean of channels 0 and 1 only;
// any further channels do not contribute.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		base := i * channels
		mono[i] = (samples[base] + samples[base+1]) / 2
	}
	return mono
}
