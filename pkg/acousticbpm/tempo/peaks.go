package tempo

// DetectPeaks returns the indices of strict local maxima of env that lie
// above threshold, in increasing order.
//
// The first and last samples are never candidates. A candidate is kept only
// when it is more than minGap samples past the previously kept peak; an
// earlier peak always wins over a later, larger one inside the gap.
func DetectPeaks(env []float32, threshold float32, minGap int) []int {
	var peaks []int
	if len(env) < 3 {
		return peaks
	}

	last := 0
	for i := 1; i < len(env)-1; i++ {
		v := env[i]
		if v <= env[i-1] || v <= env[i+1] || v <= threshold {
			continue
		}
		if len(peaks) == 0 || i-last > minGap {
			peaks = append(peaks, i)
			last = i
		}
	}
	return peaks
}
