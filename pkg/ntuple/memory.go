package ntuple

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"umd-lhcb/tupling/pkg/boolean/value"
)

// MemorySource holds trees in memory. It is safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	trees map[string]*memTree
}

type memTree struct {
	entries  int
	branches map[string]value.Value
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{trees: make(map[string]*memTree)}
}

// AddTree adds or replaces a tree. Every branch must be an array and all
// branches must have the same length.
func (s *MemorySource) AddTree(tree string, branches map[string]value.Value) error {
	t := &memTree{entries: -1, branches: make(map[string]value.Value, len(branches))}
	for name, v := range branches {
		if v.IsScalar() {
			return fmt.Errorf("branch %q of tree %q is a scalar", name, tree)
		}
		if t.entries >= 0 && v.Len() != t.entries {
			return fmt.Errorf("%w: tree %q branch %q has %d entries, expected %d",
				ErrLengthMismatch, tree, name, v.Len(), t.entries)
		}
		t.entries = v.Len()
		t.branches[name] = v
	}
	if t.entries < 0 {
		t.entries = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[tree] = t
	return nil
}

// Trees returns the names of all trees, sorted.
func (s *MemorySource) Trees() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.trees))
	for name := range s.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemorySource) tree(name string) (*memTree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trees[name]
	if !ok {
		return nil, treeNotFound(name)
	}
	return t, nil
}

// Branches implements Source.
func (s *MemorySource) Branches(ctx context.Context, tree string, names []string) (map[string]value.Value, error) {
	t, err := s.tree(tree)
	if err != nil {
		return nil, err
	}

	out := make(map[string]value.Value, len(names))
	var missing []string
	for _, name := range unique(names) {
		v, ok := t.branches[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		return nil, &BranchNotFoundError{Tree: tree, Names: missing}
	}
	return out, nil
}

// Branch implements Source.
func (s *MemorySource) Branch(ctx context.Context, tree, name string) (value.Value, error) {
	return fetchOne(ctx, s, tree, name)
}

// Entries implements Source.
func (s *MemorySource) Entries(ctx context.Context, tree string) (int, error) {
	t, err := s.tree(tree)
	if err != nil {
		return 0, err
	}
	return t.entries, nil
}

// ListBranches implements BranchLister.
func (s *MemorySource) ListBranches(ctx context.Context, tree string) ([]string, error) {
	t, err := s.tree(tree)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(t.branches))
	for name := range t.branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
