package acousticbpm

import (
	"context"
	"errors"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/storage"
)

var (
	// ErrNoStorage is returned by history operations when persistence is off.
	ErrNoStorage = errors.New("result storage is disabled")
	// ErrRunNotFound wraps lookups and deletes of unknown run IDs.
	ErrRunNotFound = storage.ErrRunNotFound
)

type Service interface {
	// Scan analyses every recognized audio file in dir. Per-file failures
	// are reported through the Sink and recorded in the summary; the
	// returned error is non-nil only when dir itself cannot be listed.
	Scan(ctx context.Context, dir string) (*ScanSummary, error)
	// Check decodes every recognized file in dir without analysing it.
	Check(ctx context.Context, dir string) (*ScanSummary, error)
	AnalyzeFile(ctx context.Context, path string) (*FileResult, error)
	ListRuns(limit int) ([]ScanRun, error)
	GetRunResults(runID string) ([]FileResult, error)
	// LastResult returns the most recent stored successful result for path,
	// or nil when there is none.
	LastResult(path string) (*FileResult, error)
	DeleteRun(runID string) error
	Close() error
}

type Storage interface {
	StartRun(directory string, workers int) (string, error)
	SaveResult(runID string, r FileResult) error
	FinishRun(runID string, files, failures int) error
	ListRuns(limit int) ([]ScanRun, error)
	GetRunResults(runID string) ([]FileResult, error)
	LatestResult(path string) (*FileResult, error)
	DeleteRun(runID string) error
	Close() error
}

// Sink receives report lines. Scan calls it from a single goroutine.
type Sink interface {
	Found(name string)
	Processing(path string)
	Result(r FileResult)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
