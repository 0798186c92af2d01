// Package runstore keeps a history of fetch runs in a local SQLite database
// so operators can see when data last landed and why a run failed.
package runstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mandi/internal/pipeline"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fetchRunModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"size:36;uniqueIndex"`
	StartedAt  int64  `gorm:"index"`
	FinishedAt int64
	Fetched    int
	Rejected   int
	Merged     int
	Status     string `gorm:"size:16;index"`
	Error      string
}

func (fetchRunModel) TableName() string { return "fetch_runs" }

// Store persists fetch run reports.
type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the run-history database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runstore: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&fetchRunModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep contention low, the fetcher writes and the viewer
	// reads.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record persists one run report.
func (s *Store) Record(ctx context.Context, rep pipeline.Report) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("runstore not initialized")
	}
	m := fetchRunModel{
		RunID:      rep.RunID,
		StartedAt:  rep.StartedAt.UnixMilli(),
		FinishedAt: rep.FinishedAt.UnixMilli(),
		Fetched:    rep.Fetched,
		Rejected:   rep.Rejected,
		Merged:     rep.Merged,
		Status:     rep.Status,
		Error:      rep.Err,
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]pipeline.Report, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("runstore not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	var models []fetchRunModel
	if err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]pipeline.Report, 0, len(models))
	for _, m := range models {
		out = append(out, pipeline.Report{
			RunID:      m.RunID,
			StartedAt:  time.UnixMilli(m.StartedAt),
			FinishedAt: time.UnixMilli(m.FinishedAt),
			Fetched:    m.Fetched,
			Rejected:   m.Rejected,
			Merged:     m.Merged,
			Status:     m.Status,
			Err:        m.Error,
		})
	}
	return out, nil
}
