package cutflow

import (
	"context"
	"fmt"

	"umd-lhcb/tupling/pkg/ntuple"
)

// CountRegulator turns the final mask of a rule into its output count.
type CountRegulator interface {
	Count(ctx context.Context, source ntuple.Source, tree string, mask []bool) (int64, error)
}

// CountFunc adapts a function to CountRegulator.
type CountFunc func(ctx context.Context, source ntuple.Source, tree string, mask []bool) (int64, error)

// Count calls f.
func (f CountFunc) Count(ctx context.Context, source ntuple.Source, tree string, mask []bool) (int64, error) {
	return f(ctx, source, tree, mask)
}

// SumRegulator counts true entries.
type SumRegulator struct{}

// Count returns the number of true entries in mask.
func (SumRegulator) Count(_ context.Context, _ ntuple.Source, _ string, mask []bool) (int64, error) {
	return countTrue(mask), nil
}

func countTrue(mask []bool) int64 {
	var n int64
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// UniqueEvents counts events identified by a run/event number pair rather
// than entries, so candidates sharing an event are counted once.
type UniqueEvents struct {
	// RunBranch holds the run number. Default: "runNumber".
	RunBranch string

	// EventBranch holds the event number. Default: "eventNumber".
	EventBranch string

	// DropDuplicates counts only identifiers that occur exactly once among
	// the selected entries; otherwise every distinct identifier counts.
	DropDuplicates bool
}

// Count implements CountRegulator.
func (u UniqueEvents) Count(ctx context.Context, source ntuple.Source, tree string, mask []bool) (int64, error) {
	runBranch, eventBranch := u.RunBranch, u.EventBranch
	if runBranch == "" {
		runBranch = "runNumber"
	}
	if eventBranch == "" {
		eventBranch = "eventNumber"
	}

	if source == nil {
		return 0, fmt.Errorf("unique event count needs a data source")
	}

	cols, err := source.Branches(ctx, tree, []string{runBranch, eventBranch})
	if err != nil {
		return 0, err
	}

	runs := cols[runBranch].Ints()
	events := cols[eventBranch].Ints()
	if len(runs) != len(mask) || len(events) != len(mask) {
		return 0, fmt.Errorf("%w: mask has %d entries, %s %d, %s %d",
			ntuple.ErrLengthMismatch, len(mask), runBranch, len(runs), eventBranch, len(events))
	}

	type uid struct{ run, event int64 }
	counts := make(map[uid]int)
	for i, pass := range mask {
		if pass {
			counts[uid{runs[i], events[i]}]++
		}
	}

	if !u.DropDuplicates {
		return int64(len(counts)), nil
	}

	var n int64
	for _, c := range counts {
		if c == 1 {
			n++
		}
	}
	return n, nil
}
