package acousticbpm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// FormatBPM renders a tempo with six significant digits.
func FormatBPM(bpm float32) string {
	return strconv.FormatFloat(float64(bpm), 'g', 6, 32)
}

// ConsoleSink writes results to out and diagnostics to errOut.
type ConsoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func NewConsoleSink(out, errOut io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &ConsoleSink{out: out, errOut: errOut}
}

func (s *ConsoleSink) Found(name string) {
	s.println(s.out, "Found: "+name)
}

func (s *ConsoleSink) Processing(path string) {
	s.println(s.out, "Processing file: "+path)
}

func (s *ConsoleSink) Result(r FileResult) {
	switch r.Status {
	case StatusOK:
		s.println(s.out, fmt.Sprintf("Detected BPM for %s: %s", r.Path, FormatBPM(r.BPM)))
	case StatusChecked:
		s.println(s.out, "File opened successfully: "+r.Path, "Samples read successfully: "+r.Path)
	case StatusNotFound:
		s.println(s.errOut, "File not found: "+r.Path)
	case StatusOpenFailed:
		s.println(s.errOut, "Error opening file: "+r.Path, "Decoder error: "+r.Error)
	case StatusInvalid:
		s.println(s.errOut, "Invalid file: "+r.Path+" (frames or channels is zero)")
	case StatusReadFailed:
		s.println(s.errOut, "Error reading samples from "+r.Path)
	case StatusCancelled:
		s.println(s.errOut, "Skipped (cancelled): "+r.Path)
	default:
		s.println(s.errOut, fmt.Sprintf("Error processing file: %s (%s)", r.Path, r.Error))
	}
}

// println writes all lines of one report in a single locked section.
func (s *ConsoleSink) println(w io.Writer, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// discardSink drops everything; used when no sink is configured.
type discardSink struct{}

func (discardSink) Found(string)      {}
func (discardSink) Processing(string) {}
func (discardSink) Result(FileResult) {}
