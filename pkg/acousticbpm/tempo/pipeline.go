// Package tempo estimates tempo from a raw waveform with a time-domain
// envelope and peak-picking heuristic. Nothing here looks at frequency
// content.
package tempo

// Result is the outcome of one analysis.
type Result struct {
	BPM    float32 // calibrated tempo, 0 when fewer than two peaks were found
	RawBPM float32 // 60 / mean peak interval, before calibration
	Peaks  int     // number of accepted peaks
	Frames int     // mono samples analysed
}

// Analyze runs downmix, envelope, peak detection and tempo estimation over
// one interleaved buffer.
func Analyze(samples []float32, channels, sampleRate int, p Params) Result {
	mono := Downmix(samples, channels)
	env := Envelope(mono, p.Smoothing)
	peaks := DetectPeaks(env, p.Threshold, p.MinGap)

	raw := RawBPM(peaks, sampleRate)
	res := Result{
		RawBPM: raw,
		Peaks:  len(peaks),
		Frames: len(mono),
	}
	if raw != 0 {
		res.BPM = raw / p.Calibration
	}
	return res
}
