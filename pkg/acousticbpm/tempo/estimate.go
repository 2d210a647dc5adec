package tempo

// RawBPM converts peak positions to beats per minute from the mean
// inter-peak interval. It returns 0 when fewer than two peaks are given.
//
// Arithmetic is single precision throughout.
func RawBPM(peaks []int, sampleRate int) float32 {
	if len(peaks) < 2 || sampleRate <= 0 {
		return 0
	}

	rate := float32(sampleRate)
	var total float32
	for k := 1; k < len(peaks); k++ {
		total += float32(peaks[k]-peaks[k-1]) / rate
	}

	avg := total / float32(len(peaks)-1)
	return 60.0 / avg
}

// EstimateBPM is RawBPM divided by the calibration divisor.
func EstimateBPM(peaks []int, sampleRate int, calibration float32) float32 {
	raw := RawBPM(peaks, sampleRate)
	if raw == 0 {
		return 0
	}
	return raw / calibration
}
