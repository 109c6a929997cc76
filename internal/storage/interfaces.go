package storage

import (
	"context"

	"fraud-pipeline/internal/domain"
)

// AnalyticsStore is the pipeline's sink: a replaceable primary table
// (fraud_transactions) plus a derived alert view (high_risk_alerts).
type AnalyticsStore interface {
	// Commit atomically replaces the primary table with the given rows and
	// re-derives the alert view. A failed commit leaves the previously
	// committed table intact. Returns total and alert counts.
	Commit(ctx context.Context, rows []domain.FinalTransaction) (total, alerts int, err error)

	// Alerts returns the high-risk view: rows with either alert flag set,
	// ordered by amount paid descending.
	Alerts(ctx context.Context) ([]domain.FinalTransaction, error)

	// Counts returns total and alert row counts for the committed table.
	Counts(ctx context.Context) (total, alerts int, err error)
}

// RunStore is the pipeline run ledger.
type RunStore interface {
	// Begin records a run in RUNNING state. Returns ErrDuplicateKey if the
	// run ID already exists.
	Begin(ctx context.Context, run *domain.PipelineRun) error

	// Finish updates the run's terminal state, counts and failure cause.
	// Returns ErrNotFound if the run was never begun.
	Finish(ctx context.Context, run *domain.PipelineRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.PipelineRun, error)
}
