package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

// RunStore persists pipeline runs to the pipeline_runs table.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new PostgreSQL-backed run ledger.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check
var _ storage.RunStore = (*RunStore)(nil)

// Begin records a run in RUNNING state.
func (s *RunStore) Begin(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pipeline_runs (run_id, started_at, finished_at, status, failing_stage, error_message, total_count, alert_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		run.RunID,
		run.StartedAt,
		run.FinishedAt,
		domain.RunStatusRunning,
		run.FailingStage,
		run.ErrorMessage,
		run.TotalCount,
		run.AlertCount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pipeline run: %w", err)
	}

	return nil
}

// Finish updates the run's terminal state, counts and failure cause.
func (s *RunStore) Finish(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE pipeline_runs
		SET finished_at = $2, status = $3, failing_stage = $4, error_message = $5, total_count = $6, alert_count = $7
		WHERE run_id = $1`

	tag, err := s.pool.Exec(ctx, query,
		run.RunID,
		run.FinishedAt,
		run.Status,
		run.FailingStage,
		run.ErrorMessage,
		run.TotalCount,
		run.AlertCount,
	)
	if err != nil {
		return fmt.Errorf("update pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	if runID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT run_id, started_at, finished_at, status, failing_stage, error_message, total_count, alert_count
		FROM pipeline_runs
		WHERE run_id = $1`

	var run domain.PipelineRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.FailingStage,
		&run.ErrorMessage,
		&run.TotalCount,
		&run.AlertCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select pipeline run: %w", err)
	}

	return &run, nil
}
