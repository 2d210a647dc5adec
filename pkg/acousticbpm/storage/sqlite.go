package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "acousticbpm.sqlite3"
const errDBClientNil = "db client is nil"

// ErrRunNotFound is returned when a scan run ID does not exist.
var ErrRunNotFound = errors.New("scan run not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// ScanRun is one invocation of a directory scan.
type ScanRun struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Directory  string `gorm:"index:idx_run_directory"`
	Workers    int
	Files      int
	Failures   int
	StartedAt  time.Time `gorm:"index:idx_run_started"`
	FinishedAt *time.Time
}

// TempoResult is the outcome for one file within a run.
type TempoResult struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"type:varchar(36);index:idx_result_run"`
	Path       string `gorm:"index:idx_result_path"`
	Status     string
	Error      string
	BPM        float32
	RawBPM     float32
	Peaks      int
	Frames     int
	Channels   int
	SampleRate int
	Format     string
	CreatedAt  time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("ACOUSTIC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// results are written by a single coordinator goroutine
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&ScanRun{}, &TempoResult{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateRun registers a new scan run and returns its UUID.
func (c *DBClient) CreateRun(directory string, workers int) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	run := ScanRun{
		ID:        uuid.NewString(),
		Directory: directory,
		Workers:   workers,
		StartedAt: time.Now().UTC(),
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating scan run: %w", err)
	}
	return run.ID, nil
}

// FinishRun records the file and failure counts of a completed run.
func (c *DBClient) FinishRun(runID string, files, failures int) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	now := time.Now().UTC()
	res := c.DB.Model(&ScanRun{}).Where("id = ?", runID).Updates(map[string]any{
		"files":       files,
		"failures":    failures,
		"finished_at": &now,
	})
	if res.Error != nil {
		return fmt.Errorf("finishing scan run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (c *DBClient) StoreResult(r *TempoResult) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if err := c.DB.Create(r).Error; err != nil {
		return fmt.Errorf("storing result for %s: %w", r.Path, err)
	}
	return nil
}

// ListRuns returns runs newest first. limit <= 0 means no limit.
func (c *DBClient) ListRuns(limit int) ([]ScanRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	q := c.DB.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []ScanRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	return runs, nil
}

func (c *DBClient) GetRun(runID string) (*ScanRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var run ScanRun
	err := c.DB.Where("id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying scan run: %w", err)
	}
	return &run, nil
}

// ResultsForRun returns a run's results ordered by path.
func (c *DBClient) ResultsForRun(runID string) ([]TempoResult, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []TempoResult
	if err := c.DB.Where("run_id = ?", runID).Order("path ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	return rows, nil
}

// LatestResult returns the most recent successful result for a path.
func (c *DBClient) LatestResult(path string) (*TempoResult, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var row TempoResult
	err := c.DB.Where("path = ? AND status = ?", path, "ok").Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest result: %w", err)
	}
	return &row, nil
}

func (c *DBClient) DeleteRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&TempoResult{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", runID).Delete(&ScanRun{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
