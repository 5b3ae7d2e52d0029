package cutflow

import (
	"time"
)

// Step is the externally visible outcome of one result key.
type Step struct {
	Input  int64  `json:"input" yaml:"input"`
	Output int64  `json:"output" yaml:"output"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Efficiency returns Output/Input, or 0 when Input is 0.
func (s Step) Efficiency() float64 {
	if s.Input == 0 {
		return 0
	}
	return float64(s.Output) / float64(s.Input)
}

// RuleOutcome records how one rule was evaluated.
type RuleOutcome struct {
	Index     int           `json:"index" yaml:"index"`
	Key       string        `json:"key" yaml:"key"`
	Cond      string        `json:"cond" yaml:"cond"`
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	Explicit  bool          `json:"explicit" yaml:"explicit"`
	Reference int           `json:"reference" yaml:"reference"` // Index chained from, -1 for the initial count
	Input     int64         `json:"input" yaml:"input"`
	Output    int64         `json:"output" yaml:"output"`
	Raw       int64         `json:"raw" yaml:"raw"` // True entries before chaining
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Result is the outcome of one cutflow run.
type Result struct {
	RunID   string `json:"run_id" yaml:"run_id"`
	Tree    string `json:"tree" yaml:"tree"`
	InitNum int64  `json:"init_num" yaml:"init_num"`

	// Steps maps result keys to counts. A later rule with the same key
	// replaces an earlier one.
	Steps map[string]Step `json:"steps" yaml:"steps"`

	// Order lists result keys in first-seen order.
	Order []string `json:"order" yaml:"order"`

	// Rules lists every rule outcome in evaluation order.
	Rules []RuleOutcome `json:"rules" yaml:"rules"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Step returns the step recorded under key.
func (r *Result) Step(key string) (Step, bool) {
	s, ok := r.Steps[key]
	return s, ok
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Row is one line of a cutflow table.
type Row struct {
	Key        string  `json:"key" yaml:"key"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Input      int64   `json:"input" yaml:"input"`
	Output     int64   `json:"output" yaml:"output"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
}

// Table returns one row per result key, in first-seen order.
func (r *Result) Table() []Row {
	rows := make([]Row, 0, len(r.Order))
	for _, key := range r.Order {
		s := r.Steps[key]
		rows = append(rows, Row{
			Key:        key,
			Name:       s.Name,
			Input:      s.Input,
			Output:     s.Output,
			Efficiency: s.Efficiency(),
		})
	}
	return rows
}
