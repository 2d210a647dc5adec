package acousticbpm

import "time"

// Status classifies the outcome for one file.
type Status string

const (
	StatusOK         Status = "ok"
	StatusChecked    Status = "checked"
	StatusNotFound   Status = "not_found"
	StatusOpenFailed Status = "open_failed"
	StatusInvalid    Status = "invalid"
	StatusReadFailed Status = "read_failed"
	StatusPanic      Status = "panic"
	StatusTimeout    Status = "timeout"
	StatusCancelled  Status = "cancelled"
)

// FileResult is the outcome of analysing (or checking) one audio file.
type FileResult struct {
	Path       string
	Status     Status
	Error      string  // decoder diagnostic for failed files
	BPM        float32 // calibrated tempo; 0 when fewer than two peaks
	RawBPM     float32
	Peaks      int
	Frames     int
	Channels   int
	SampleRate int
	Format     string
}

// Failed reports whether the file could not be processed.
func (r FileResult) Failed() bool {
	return r.Status != StatusOK && r.Status != StatusChecked
}

// ScanSummary describes a finished directory scan.
type ScanSummary struct {
	RunID     string // empty when results are not persisted
	Directory string
	Files     int
	Failures  int
	Results   []FileResult // ordered by path
	Elapsed   time.Duration
}

// ScanRun is a persisted scan.
type ScanRun struct {
	ID         string
	Directory  string
	Workers    int
	Files      int
	Failures   int
	StartedAt  time.Time
	FinishedAt *time.Time
}
