package store

import (
	"context"
	"time"

	"umd-lhcb/tupling/pkg/cutflow"
)

// Run is a recorded cutflow run.
type Run struct {
	ID          string    `json:"id"`
	Tree        string    `json:"tree"`
	Source      string    `json:"source,omitempty"` // Data file or label the run was made against
	InitNum     int64     `json:"init_num"`
	RulesDigest string    `json:"rules_digest"` // SHA-256 of the normalized rules
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	RecordedAt  time.Time `json:"recorded_at"`

	Steps []StepRecord `json:"steps"`
}

// StepRecord is one row of a recorded cutflow table.
type StepRecord struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Input    int64  `json:"input"`
	Output   int64  `json:"output"`
}

// Table returns the recorded steps as result rows.
func (r *Run) Table() []cutflow.Row {
	rows := make([]cutflow.Row, len(r.Steps))
	for i, s := range r.Steps {
		rows[i] = cutflow.Row{
			Key:        s.Key,
			Name:       s.Name,
			Input:      s.Input,
			Output:     s.Output,
			Efficiency: cutflow.Step{Input: s.Input, Output: s.Output}.Efficiency(),
		}
	}
	return rows
}

// NewRun builds a Run from a cutflow result. Steps follow the result's
// first-seen key order.
func NewRun(result *cutflow.Result, rulesDigest, source string) *Run {
	run := &Run{
		ID:          result.RunID,
		Tree:        result.Tree,
		Source:      source,
		InitNum:     result.InitNum,
		RulesDigest: rulesDigest,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		RecordedAt:  time.Now(),
		Steps:       make([]StepRecord, 0, len(result.Order)),
	}
	for i, key := range result.Order {
		s := result.Steps[key]
		run.Steps = append(run.Steps, StepRecord{
			Position: i,
			Key:      key,
			Name:     s.Name,
			Input:    s.Input,
			Output:   s.Output,
		})
	}
	return run
}

// Query defines filter parameters for recorded runs. Results are ordered by
// start time, newest first.
type Query struct {
	Tree        string
	RulesDigest string
	IDs         []string

	StartTime *time.Time // Runs started at or after
	EndTime   *time.Time // Runs started at or before

	Limit  int // Default: 100 for Query, unlimited for Count and Delete
	Offset int

	Ascending bool // Oldest first
}

// Storage persists cutflow runs.
type Storage interface {
	// Store persists a run. Storing a run with an existing ID fails.
	Store(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or ErrRunNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// Query returns runs matching the filters, with their steps.
	Query(ctx context.Context, query *Query) ([]*Run, error)

	// Count returns the number of runs matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes runs matching the filters and returns how many were
	// removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
