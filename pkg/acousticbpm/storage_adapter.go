package acousticbpm

import (
	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) StartRun(directory string, workers int) (string, error) {
	return s.db.CreateRun(directory, workers)
}

func (s *storageAdapter) SaveResult(runID string, r FileResult) error {
	return s.db.StoreResult(&storage.TempoResult{
		RunID:      runID,
		Path:       r.Path,
		Status:     string(r.Status),
		Error:      r.Error,
		BPM:        r.BPM,
		RawBPM:     r.RawBPM,
		Peaks:      r.Peaks,
		Frames:     r.Frames,
		Channels:   r.Channels,
		SampleRate: r.SampleRate,
		Format:     r.Format,
	})
}

func (s *storageAdapter) FinishRun(runID string, files, failures int) error {
	return s.db.FinishRun(runID, files, failures)
}

func (s *storageAdapter) ListRuns(limit int) ([]ScanRun, error) {
	rows, err := s.db.ListRuns(limit)
	if err != nil {
		return nil, err
	}

	runs := make([]ScanRun, len(rows))
	for i, r := range rows {
		runs[i] = ScanRun{
			ID:         r.ID,
			Directory:  r.Directory,
			Workers:    r.Workers,
			Files:      r.Files,
			Failures:   r.Failures,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		}
	}
	return runs, nil
}

func (s *storageAdapter) GetRunResults(runID string) ([]FileResult, error) {
	if _, err := s.db.GetRun(runID); err != nil {
		return nil, err
	}
	rows, err := s.db.ResultsForRun(runID)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(rows))
	for i := range rows {
		results[i] = fromRow(&rows[i])
	}
	return results, nil
}

func (s *storageAdapter) LatestResult(path string) (*FileResult, error) {
	row, err := s.db.LatestResult(path)
	if err != nil || row == nil {
		return nil, err
	}
	res := fromRow(row)
	return &res, nil
}

func fromRow(r *storage.TempoResult) FileResult {
	return FileResult{
		Path:       r.Path,
		Status:     Status(r.Status),
		Error:      r.Error,
		BPM:        r.BPM,
		RawBPM:     r.RawBPM,
		Peaks:      r.Peaks,
		Frames:     r.Frames,
		Channels:   r.Channels,
		SampleRate: r.SampleRate,
		Format:     r.Format,
	}
}

func (s *storageAdapter) DeleteRun(runID string) error {
	return s.db.DeleteRun(runID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
