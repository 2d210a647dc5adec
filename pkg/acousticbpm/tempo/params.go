package tempo

import "fmt"

// Default pipeline constants.
const (
	DefaultSmoothing   float32 = 0.1
	DefaultThreshold   float32 = 0.05
	DefaultMinGap              = 500
	DefaultCalibration float32 = 35.0
)

// Params tunes the envelope/peak heuristic.
type Params struct {
	// Smoothing is the one-pole low-pass coefficient applied to the
	// rectified signal. 1 disables smoothing.
	Smoothing float32
	// Threshold is the envelope level a peak must strictly exceed.
	Threshold float32
	// MinGap is the number of samples that must strictly separate an
	// accepted peak from the previously accepted one.
	MinGap int
	// Calibration divides the raw peak-interval BPM into the reported one.
	Calibration float32
}

func DefaultParams() Params {
	return Params{
		Smoothing:   DefaultSmoothing,
		Threshold:   DefaultThreshold,
		MinGap:      DefaultMinGap,
		Calibration: DefaultCalibration,
	}
}

func (p Params) Validate() error {
	if p.Smoothing <= 0 || p.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in (0, 1], got %g", p.Smoothing)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %g", p.Threshold)
	}
	if p.MinGap < 0 {
		return fmt.Errorf("min gap must be non-negative, got %d", p.MinGap)
	}
	if p.Calibration <= 0 {
		return fmt.Errorf("calibration must be positive, got %g", p.Calibration)
	}
	return nil
}
