package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kalambet/atelier/internal/storage"
)

// RunRecorder persists a log entry per snapshot. Implemented by storage.Store.
type RunRecorder interface {
	SaveBackupRun(r storage.BackupRun) error
}

// Scheduler writes export snapshots into dir on a cron schedule.
type Scheduler struct {
	bridge   *Bridge
	dir      string
	schedule string
	runs     RunRecorder
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. runs may be nil.
func NewScheduler(bridge *Bridge, dir, schedule string, runs RunRecorder) *Scheduler {
	return &Scheduler{
		bridge:   bridge,
		dir:      dir,
		schedule: schedule,
		runs:     runs,
		logger:   slog.Default(),
	}
}

// Run blocks until ctx is cancelled, taking a snapshot on every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Snapshot(); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("parsing backup schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Info("backup scheduler started", "schedule", s.schedule, "dir", s.dir)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Snapshot writes one export document into dir and returns its path.
func (s *Scheduler) Snapshot() (string, error) {
	doc := s.bridge.Export()
	run := storage.BackupRun{
		ID:        uuid.New().String(),
		FileName:  FileName(doc.ExportDate),
		Comments:  len(doc.Comments),
		Reviews:   len(doc.Reviews),
		CreatedAt: doc.ExportDate,
	}

	path, err := s.write(doc, run.FileName)
	if err != nil {
		run.LastError = err.Error()
	}
	if s.runs != nil {
		if recErr := s.runs.SaveBackupRun(run); recErr != nil {
			s.logger.Warn("recording backup run", "error", recErr)
		}
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("backup snapshot written", "path", path, "comments", run.Comments, "reviews", run.Reviews)
	return path, nil
}

func (s *Scheduler) write(doc Document, name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup file: %w", err)
	}
	return path, nil
}
