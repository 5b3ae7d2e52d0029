package ntuple

import (
	"context"
	"sort"

	"umd-lhcb/tupling/pkg/boolean/value"
)

// ConcatSource presents several sources as one. Each branch is the
// concatenation of the same branch from every source, in order, so every
// source must provide every requested branch.
type ConcatSource struct {
	sources []Source
}

// NewConcatSource creates a source concatenating sources in order.
func NewConcatSource(sources ...Source) *ConcatSource {
	return &ConcatSource{sources: sources}
}

// Branches implements Source.
func (c *ConcatSource) Branches(ctx context.Context, tree string, names []string) (map[string]value.Value, error) {
	names = unique(names)
	parts := make(map[string][]value.Value, len(names))

	for _, s := range c.sources {
		cols, err := s.Branches(ctx, tree, names)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			parts[name] = append(parts[name], cols[name])
		}
	}

	out := make(map[string]value.Value, len(names))
	for _, name := range names {
		v, err := value.Concat(parts[name]...)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Branch implements Source.
func (c *ConcatSource) Branch(ctx context.Context, tree, name string) (value.Value, error) {
	return fetchOne(ctx, c, tree, name)
}

// Entries implements Source.
func (c *ConcatSource) Entries(ctx context.Context, tree string) (int, error) {
	total := 0
	for _, s := range c.sources {
		n, err := s.Entries(ctx, tree)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ListBranches implements BranchLister. It returns the branches present in
// every source that can list its branches.
func (c *ConcatSource) ListBranches(ctx context.Context, tree string) ([]string, error) {
	counts := make(map[string]int)
	listers := 0
	for _, s := range c.sources {
		l, ok := s.(BranchLister)
		if !ok {
			continue
		}
		names, err := l.ListBranches(ctx, tree)
		if err != nil {
			return nil, err
		}
		listers++
		for _, n := range names {
			counts[n]++
		}
	}

	var out []string
	for name, n := range counts {
		if n == listers {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
