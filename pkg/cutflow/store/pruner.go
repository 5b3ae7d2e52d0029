package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionConfig contains configuration for the retention pruner.
type RetentionConfig struct {
	// RetentionDays is the number of days to keep runs.
	// 0 means keep runs forever.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// ArchiveBeforeDelete writes pruned runs to a JSON file first.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archived runs.
	ArchivePath string

	// MaxRuns is the maximum number of runs to keep.
	// 0 means unlimited.
	MaxRuns int64
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
		ArchivePath:   "data/archives/",
	}
}

// Pruner enforces retention policies on recorded runs.
type Pruner struct {
	storage   Storage
	config    *RetentionConfig
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage Storage, config *RetentionConfig, logger *slog.Logger) *Pruner {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "cutflow.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p, logger)

	return p
}

// Prune deletes runs older than the retention period, then the oldest runs
// beyond MaxRuns. Returns the total number of runs deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRuns > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total == 0 {
		p.logger.Debug("no runs pruned",
			"retention_days", p.config.RetentionDays,
			"max_runs", p.config.MaxRuns,
		)
	} else {
		p.logger.Info("run pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_runs", p.config.MaxRuns,
		)
	}

	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	query := &Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		runs, err := p.all(ctx, query)
		if err != nil {
			return 0, &RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
		}
		if err := p.archive(runs, "age"); err != nil {
			return 0, &RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
		}
	}

	deleted, err := p.storage.Delete(ctx, query)
	if err != nil {
		return 0, &RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
	}
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	if count <= p.config.MaxRuns {
		return 0, nil
	}

	toDelete := int(count - p.config.MaxRuns)
	p.logger.Info("run count exceeds limit, pruning oldest",
		"current_count", count,
		"max_runs", p.config.MaxRuns,
		"to_delete", toDelete,
	)

	oldest, err := p.storage.Query(ctx, &Query{Ascending: true, Limit: toDelete})
	if err != nil {
		return 0, fmt.Errorf("failed to query runs: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(oldest, "count"); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	ids := make([]string, len(oldest))
	for i, run := range oldest {
		ids[i] = run.ID
	}
	deleted, err := p.storage.Delete(ctx, &Query{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// all pages through every run matching query.
func (p *Pruner) all(ctx context.Context, query *Query) ([]*Run, error) {
	const page = 500

	var runs []*Run
	q := *query
	q.Ascending = true
	q.Limit = page
	for {
		batch, err := p.storage.Query(ctx, &q)
		if err != nil {
			return nil, err
		}
		runs = append(runs, batch...)
		if len(batch) < page {
			return runs, nil
		}
		q.Offset += page
	}
}

// archive writes runs to a JSON file under ArchivePath.
func (p *Pruner) archive(runs []*Run, reason string) error {
	if len(runs) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("cutflow-runs-%s-%s.json", reason, p.now().Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	p.logger.Info("cutflow runs archived",
		"archive_file", archiveFile,
		"run_count", len(runs),
	)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
