package main

import (
	"errors"
	"time"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm"
)

// ScanRequest is the request body for POST /api/runs
type ScanRequest struct {
	Directory string `json:"directory"`
}

func (r *ScanRequest) Validate() error {
	if r.Directory == "" {
		return errors.New("directory is required")
	}
	return nil
}

// ResultDTO represents one analysed file in API responses
type ResultDTO struct {
	Path       string  `json:"path"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	BPM        float32 `json:"bpm"`
	BPMText    string  `json:"bpm_text"`
	RawBPM     float32 `json:"raw_bpm"`
	Peaks      int     `json:"peaks"`
	Frames     int     `json:"frames"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sample_rate"`
	Format     string  `json:"format,omitempty"`
}

func toResultDTO(r acousticbpm.FileResult) ResultDTO {
	return ResultDTO{
		Path:       r.Path,
		Status:     string(r.Status),
		Error:      r.Error,
		BPM:        r.BPM,
		BPMText:    acousticbpm.FormatBPM(r.BPM),
		RawBPM:     r.RawBPM,
		Peaks:      r.Peaks,
		Frames:     r.Frames,
		Channels:   r.Channels,
		SampleRate: r.SampleRate,
		Format:     r.Format,
	}
}

func toResultDTOs(results []acousticbpm.FileResult) []ResultDTO {
	out := make([]ResultDTO, len(results))
	for i, r := range results {
		out[i] = toResultDTO(r)
	}
	return out
}

// RunDTO represents a stored scan run
type RunDTO struct {
	ID         string     `json:"id"`
	Directory  string     `json:"directory"`
	Workers    int        `json:"workers"`
	Files      int        `json:"files"`
	Failures   int        `json:"failures"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs  []RunDTO `json:"runs"`
	Count int      `json:"count"`
}

// ScanResponse is the response for POST /api/runs
type ScanResponse struct {
	RunID     string      `json:"run_id,omitempty"`
	Directory string      `json:"directory"`
	Files     int         `json:"files"`
	Failures  int         `json:"failures"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Results   []ResultDTO `json:"results"`
}

// RunResultsResponse is the response for GET /api/runs/{id}
type RunResultsResponse struct {
	RunID   string      `json:"run_id"`
	Results []ResultDTO `json:"results"`
	Count   int         `json:"count"`
}

// DeleteRunResponse is the response for DELETE /api/runs/{id}
type DeleteRunResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	RunCount     int    `json:"run_count"`
	FileCount    int    `json:"file_count"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
