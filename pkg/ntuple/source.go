package ntuple

import (
	"context"

	"umd-lhcb/tupling/pkg/boolean/value"
)

// Source serves branches of named trees. All arrays returned for one tree
// have the same length.
type Source interface {
	// Branches fetches several branches in one request. A missing branch
	// fails the whole request with a *BranchNotFoundError.
	Branches(ctx context.Context, tree string, names []string) (map[string]value.Value, error)

	// Branch fetches a single branch.
	Branch(ctx context.Context, tree, name string) (value.Value, error)

	// Entries returns the number of events in the tree.
	Entries(ctx context.Context, tree string) (int, error)
}

// BranchLister is implemented by sources that can enumerate their branches.
type BranchLister interface {
	ListBranches(ctx context.Context, tree string) ([]string, error)
}

// fetchOne implements Branch on top of Branches.
func fetchOne(ctx context.Context, s Source, tree, name string) (value.Value, error) {
	cols, err := s.Branches(ctx, tree, []string{name})
	if err != nil {
		return value.Value{}, err
	}
	return cols[name], nil
}

// unique returns names without duplicates, keeping first occurrences.
func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
