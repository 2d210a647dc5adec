package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm"
	"github.com/himanishpuri/AcousticBPM/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service acousticbpm.Service
	config  *ServerConfig
	log     acousticbpm.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
}

func NewServer(service acousticbpm.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().Named("http"),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// storageStatus maps history errors to an HTTP status.
func storageStatus(err error) int {
	switch {
	case errors.Is(err, acousticbpm.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, acousticbpm.ErrNoStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "AcousticBPM API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"metrics":   "GET /api/health/metrics",
			"runs":      "GET /api/runs",
			"scan":      "POST /api/runs",
			"getRun":    "GET /api/runs/{id}",
			"deleteRun": "DELETE /api/runs/{id}",
			"analyze":   "POST /api/analyze",
			"tempo":     "GET /api/tempo?path=...",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(0)
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, storageStatus(err), "Failed to retrieve metrics")
		return
	}

	files := 0
	for _, run := range runs {
		files += run.Files
	}
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		RunCount:     len(runs),
		FileCount:    files,
	})
}

// handleListRuns handles GET /api/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.service.ListRuns(limit)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, storageStatus(err), "Failed to retrieve runs")
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = RunDTO{
			ID:         run.ID,
			Directory:  run.Directory,
			Workers:    run.Workers,
			Files:      run.Files,
			Failures:   run.Failures,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		}
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleScan handles POST /api/runs
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Scanning directory: %s", req.Directory)
	summary, err := s.service.Scan(ctx, req.Directory)
	if err != nil {
		s.log.Errorf("Scan of %s failed: %v", req.Directory, err)
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to scan directory: %v", err))
		return
	}

	s.respondJSON(w, http.StatusCreated, ScanResponse{
		RunID:     summary.RunID,
		Directory: summary.Directory,
		Files:     summary.Files,
		Failures:  summary.Failures,
		ElapsedMs: summary.Elapsed.Milliseconds(),
		Results:   toResultDTOs(summary.Results),
	})
}

// handleGetRun handles GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	results, err := s.service.GetRunResults(runID)
	if err != nil {
		s.log.Warnf("Failed to load run %s: %v", runID, err)
		s.respondError(w, storageStatus(err), fmt.Sprintf("Run %s not available", runID))
		return
	}

	s.respondJSON(w, http.StatusOK, RunResultsResponse{
		RunID:   runID,
		Results: toResultDTOs(results),
		Count:   len(results),
	})
}

// handleDeleteRun handles DELETE /api/runs/{id}
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request, runID string) {
	if err := s.service.DeleteRun(runID); err != nil {
		s.log.Warnf("Failed to delete run %s: %v", runID, err)
		s.respondError(w, storageStatus(err), fmt.Sprintf("Failed to delete run %s", runID))
		return
	}

	s.log.Infof("Deleted run %s", runID)
	s.respondJSON(w, http.StatusOK, DeleteRunResponse{
		Message: "Run deleted successfully",
		ID:      runID,
	})
}

// handleAnalyzeFile handles POST /api/analyze (multipart file upload)
func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// Parse multipart form (max 100MB)
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	// The decoder is chosen by extension, so the upload keeps its name.
	name := filepath.Base(header.Filename)
	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), name))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Analysing uploaded file: %s", name)
	res, err := s.service.AnalyzeFile(ctx, tempFile)
	if res == nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to analyse file: %v", err))
		return
	}

	dto := toResultDTO(*res)
	dto.Path = name
	if err != nil {
		s.log.Warnf("Analysis of %s failed: %v", name, err)
		s.respondJSON(w, http.StatusUnprocessableEntity, dto)
		return
	}
	s.respondJSON(w, http.StatusOK, dto)
}

// handleTempo handles GET /api/tempo?path=...
func (s *Server) handleTempo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	res, err := s.service.LastResult(path)
	if err != nil {
		s.log.Errorf("Failed to look up %s: %v", path, err)
		s.respondError(w, storageStatus(err), "Failed to look up tempo")
		return
	}
	if res == nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("No stored tempo for %s", path))
		return
	}
	s.respondJSON(w, http.StatusOK, toResultDTO(*res))
}

// handleRuns routes requests to /api/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRuns(w, r)
	case http.MethodPost:
		s.handleScan(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRun routes requests to /api/runs/{id}
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Path[len("/api/runs/"):]
	if runID == "" {
		s.respondError(w, http.StatusBadRequest, "Run ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetRun(w, r, runID)
	case http.MethodDelete:
		s.handleDeleteRun(w, r, runID)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleAnalyzeFile(w, r)
}

func (s *Server) handleTempoRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleTempo(w, r)
}
