package acousticbpm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/audio"
	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/tempo"
	"github.com/himanishpuri/AcousticBPM/pkg/logger"
	"github.com/himanishpuri/AcousticBPM/pkg/utils"
)

// bpmService is the default implementation of the Service interface.
type bpmService struct {
	storage Storage
	sink    Sink
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tempo parameters: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultConfig().Workers
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = audio.Extensions()
	}
	if cfg.Decoder == nil {
		cfg.Decoder = audio.Decode
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().Named("bpm")
	}
	if cfg.Sink == nil {
		cfg.Sink = discardSink{}
	}

	stor := cfg.Storage
	if stor == nil && !cfg.DisableStorage {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &bpmService{
		storage: stor,
		sink:    cfg.Sink,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AnalyzeFile decodes one file and estimates its tempo. On failure the
// returned result carries the failure status alongside the error.
func (s *bpmService) AnalyzeFile(ctx context.Context, path string) (*FileResult, error) {
	res := s.analyze(ctx, path)
	if res.Failed() {
		return &res, fmt.Errorf("%s: %s", res.Status, res.Error)
	}
	return &res, nil
}

func (s *bpmService) analyze(_ context.Context, path string) FileResult {
	buf, res, ok := s.decode(path)
	if !ok {
		return res
	}

	out := tempo.Analyze(buf.Samples, buf.Channels, buf.SampleRate, s.config.Params)
	res.Status = StatusOK
	res.BPM = out.BPM
	res.RawBPM = out.RawBPM
	res.Peaks = out.Peaks

	s.log.Debugf("%s: %d peaks, raw %.2f bpm, %s of audio", path, out.Peaks, out.RawBPM,
		time.Duration(buf.Duration()*float64(time.Second)).Round(time.Millisecond))
	return res
}

func (s *bpmService) check(_ context.Context, path string) FileResult {
	_, res, ok := s.decode(path)
	if ok {
		res.Status = StatusChecked
	}
	return res
}

// decode runs the decoder and maps its errors to a result status.
func (s *bpmService) decode(path string) (*audio.Buffer, FileResult, bool) {
	res := FileResult{Path: path}

	if !utils.FileExists(path) {
		res.Status = StatusNotFound
		res.Error = audio.ErrNotFound.Error()
		return nil, res, false
	}

	buf, err := s.config.Decoder(path)
	if err == nil && (buf == nil || buf.Frames <= 0 || buf.Channels <= 0) {
		err = audio.ErrInvalidContent
	}
	if err != nil {
		res.Status = classify(err)
		res.Error = err.Error()
		return nil, res, false
	}

	res.Frames = buf.Frames
	res.Channels = buf.Channels
	res.SampleRate = buf.SampleRate
	res.Format = buf.Format
	return buf, res, true
}

func classify(err error) Status {
	switch {
	case errors.Is(err, audio.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, audio.ErrInvalidContent):
		return StatusInvalid
	case errors.Is(err, audio.ErrShortRead):
		return StatusReadFailed
	default:
		return StatusOpenFailed
	}
}

// Scan analyses every recognized file in dir on the worker pool.
func (s *bpmService) Scan(ctx context.Context, dir string) (*ScanSummary, error) {
	return s.run(ctx, dir, s.analyze, true)
}

// Check decodes every recognized file in dir without estimating tempo.
func (s *bpmService) Check(ctx context.Context, dir string) (*ScanSummary, error) {
	return s.run(ctx, dir, s.check, false)
}

// opened reports whether the decoder got past opening the file.
func opened(res FileResult) bool {
	switch res.Status {
	case StatusOK, StatusInvalid, StatusReadFailed:
		return true
	}
	return false
}

// run drives one batch. In analysis mode results are persisted and every
// opened file is announced with a Processing line before its result.
func (s *bpmService) run(ctx context.Context, dir string, process func(context.Context, string) FileResult, analysis bool) (*ScanSummary, error) {
	started := time.Now()

	files, err := utils.ListFilesByExt(dir, s.config.Extensions, s.config.Recursive)
	if err != nil {
		return nil, err
	}

	var total uint64
	for _, f := range files {
		s.sink.Found(f.Name)
		total += uint64(f.Size)
	}
	s.log.Infof("Found %d audio files (%s) in %s", len(files), humanize.Bytes(total), dir)

	summary := &ScanSummary{Directory: dir, Files: len(files)}

	if analysis && s.storage != nil {
		runID, err := s.storage.StartRun(dir, s.config.Workers)
		if err != nil {
			s.log.Warnf("Results will not be stored: %v", err)
		} else {
			summary.RunID = runID
		}
	}

	workers := min(s.config.Workers, max(len(files), 1))
	s.log.Debugf("Starting %d workers", workers)

	p := newPool(process)
	p.timeout = s.config.FileTimeout
	p.Start(ctx, workers)

	p.dispatch(ctx, files,
		func(f utils.AudioFile) {
			s.log.Debugf("Dispatching %s", f.Path)
		},
		func(res FileResult) {
			if res.Failed() {
				summary.Failures++
				s.log.Debugf("%s failed (%s): %s", res.Path, res.Status, res.Error)
			}
			if analysis && opened(res) {
				s.sink.Processing(res.Path)
			}
			s.sink.Result(res)
			summary.Results = append(summary.Results, res)

			if summary.RunID != "" {
				if err := s.storage.SaveResult(summary.RunID, res); err != nil {
					s.log.Warnf("Failed to store result for %s: %v", res.Path, err)
				}
			}
		},
	)
	p.Stop()

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})

	if summary.RunID != "" {
		if err := s.storage.FinishRun(summary.RunID, summary.Files, summary.Failures); err != nil {
			s.log.Warnf("Failed to finish run %s: %v", summary.RunID, err)
		}
	}

	summary.Elapsed = time.Since(started)
	s.log.Infof("Processed %s files in %s, %d failed",
		humanize.Comma(int64(summary.Files)), summary.Elapsed.Round(time.Millisecond), summary.Failures)
	return summary, nil
}

func (s *bpmService) ListRuns(limit int) ([]ScanRun, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.ListRuns(limit)
}

func (s *bpmService) GetRunResults(runID string) ([]FileResult, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.GetRunResults(runID)
}

func (s *bpmService) LastResult(path string) (*FileResult, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.LatestResult(path)
}

func (s *bpmService) DeleteRun(runID string) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	return s.storage.DeleteRun(runID)
}

// Close releases all resources held by the service.
func (s *bpmService) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
