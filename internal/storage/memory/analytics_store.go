package memory

import (
	"context"
	"sort"
	"sync"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

// AnalyticsStore is an in-memory implementation of storage.AnalyticsStore,
// used by orchestrator and pipeline tests.
type AnalyticsStore struct {
	mu        sync.RWMutex
	committed []domain.FinalTransaction
}

// NewAnalyticsStore creates a new in-memory analytics store.
func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Commit atomically replaces the committed table with a copy of rows.
func (s *AnalyticsStore) Commit(_ context.Context, rows []domain.FinalTransaction) (int, int, error) {
	staged := make([]domain.FinalTransaction, len(rows))
	copy(staged, rows)

	s.mu.Lock()
	s.committed = staged
	s.mu.Unlock()

	alerts := 0
	for i := range staged {
		if staged[i].IsAlert() {
			alerts++
		}
	}
	return len(staged), alerts, nil
}

// Alerts returns alert rows ordered by amount paid descending.
func (s *AnalyticsStore) Alerts(_ context.Context) ([]domain.FinalTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FinalTransaction
	for i := range s.committed {
		if s.committed[i].IsAlert() {
			result = append(result, s.committed[i])
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AmountPaid > result[j].AmountPaid
	})

	return result, nil
}

// Counts returns total and alert row counts for the committed table.
func (s *AnalyticsStore) Counts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := 0
	for i := range s.committed {
		if s.committed[i].IsAlert() {
			alerts++
		}
	}
	return len(s.committed), alerts, nil
}
