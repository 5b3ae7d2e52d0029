package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// MemoryStorage implements Storage with an in-memory map. It is used by
// tests and by runs that do not configure a database.
type MemoryStorage struct {
	runs map[string]*Run
	mu   sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		runs: make(map[string]*Run),
	}
}

// Store persists a copy of run.
func (s *MemoryStorage) Store(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return NewStorageError("memory", "store", fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID))
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

// Get returns a copy of the run with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return copyRun(run), nil
}

// Query returns runs matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *Query) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.matching(query)

	start := query.Offset
	if start > len(results) {
		return []*Run{}, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	end := min(start+limit, len(results))

	out := make([]*Run, 0, end-start)
	for _, run := range results[start:end] {
		out = append(out, copyRun(run))
	}
	return out, nil
}

// Count returns the number of runs matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.matching(query))), nil
}

// Delete removes runs matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matching(query)
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	for _, run := range matched {
		delete(s.runs, run.ID)
	}
	return int64(len(matched)), nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// matching returns the runs selected by query, sorted. Callers hold the lock.
func (s *MemoryStorage) matching(query *Query) []*Run {
	var results []*Run
	for _, run := range s.runs {
		if matchesQuery(run, query) {
			results = append(results, run)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			if query.Ascending {
				return a.StartedAt.Before(b.StartedAt)
			}
			return a.StartedAt.After(b.StartedAt)
		}
		return a.ID < b.ID
	})
	return results
}

func matchesQuery(run *Run, query *Query) bool {
	if query.Tree != "" && run.Tree != query.Tree {
		return false
	}
	if query.RulesDigest != "" && run.RulesDigest != query.RulesDigest {
		return false
	}
	if len(query.IDs) > 0 && !slices.Contains(query.IDs, run.ID) {
		return false
	}
	if query.StartTime != nil && run.StartedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && run.StartedAt.After(*query.EndTime) {
		return false
	}
	return true
}

func copyRun(run *Run) *Run {
	c := *run
	c.Steps = slices.Clone(run.Steps)
	return &c
}
