package memory

import (
	"context"
	"sort"
	"sync"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PipelineRun // keyed by run_id
}

// NewRunStore creates a new in-memory run ledger.
func NewRunStore() *RunStore {
	return &RunStore{data: make(map[string]*domain.PipelineRun)}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Begin records a run. Returns ErrDuplicateKey if the run ID exists.
func (s *RunStore) Begin(_ context.Context, run *domain.PipelineRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	runCopy := *run
	s.data[run.RunID] = &runCopy
	return nil
}

// Finish updates a run's terminal state. Returns ErrNotFound if not begun.
func (s *RunStore) Finish(_ context.Context, run *domain.PipelineRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; !exists {
		return storage.ErrNotFound
	}

	runCopy := *run
	s.data[run.RunID] = &runCopy
	return nil
}

// All returns every recorded run ordered by start time.
func (s *RunStore) All() []*domain.PipelineRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PipelineRun, 0, len(s.data))
	for _, run := range s.data {
		runCopy := *run
		out = append(out, &runCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt < out[j].StartedAt })
	return out
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *run
	return &runCopy, nil
}
