package tempo

import "math"

// Envelope rectifies the mono signal and smooths it with a causal one-pole
// low-pass filter:
//
//	env[0] = |x[0]|
//	env[i] = a*|x[i]| + (1-a)*env[i-1]
//
// The input is left untouched; a new slice of the same length is returned.
func Envelope(mono []float32, a float32) []float32 {
	env := make([]float32, len(mono))
	for i, v := range mono {
		env[i] = float32(math.Abs(float64(v)))
	}

	b := 1.0 - a
	for i := 1; i < len(env); i++ {
		// conversions keep each product rounded to float32 (no FMA)
		env[i] = float32(a*env[i]) + float32(b*env[i-1])
	}
	return env
}
