package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

func testRun(runID string) *domain.PipelineRun {
	return &domain.PipelineRun{
		RunID:     runID,
		StartedAt: time.Now().UnixMilli(),
		Status:    domain.RunStatusRunning,
	}
}

func TestRunStore_BeginAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := testRun("run-begin-1")
	err := store.Begin(ctx, run)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "run-begin-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.StartedAt, got.StartedAt)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.Equal(t, int64(0), got.FinishedAt)
	assert.Empty(t, got.FailingStage)
}

func TestRunStore_Begin_DuplicateRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	err := store.Begin(ctx, testRun("run-dup-1"))
	require.NoError(t, err)

	err = store.Begin(ctx, testRun("run-dup-1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_Finish_Succeeded(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := testRun("run-finish-1")
	require.NoError(t, store.Begin(ctx, run))

	run.FinishedAt = run.StartedAt + 5000
	run.Status = domain.RunStatusSucceeded
	run.TotalCount = 1200
	run.AlertCount = 37
	require.NoError(t, store.Finish(ctx, run))

	got, err := store.GetByID(ctx, "run-finish-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, got.Status)
	assert.Equal(t, run.FinishedAt, got.FinishedAt)
	assert.Equal(t, 1200, got.TotalCount)
	assert.Equal(t, 37, got.AlertCount)
}

func TestRunStore_Finish_FailedWithCause(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := testRun("run-finish-2")
	require.NoError(t, store.Begin(ctx, run))

	run.FinishedAt = run.StartedAt + 1000
	run.Status = domain.RunStatusFailed
	run.FailingStage = "load_paysim"
	run.ErrorMessage = "open parquet file: no such file or directory"
	require.NoError(t, store.Finish(ctx, run))

	got, err := store.GetByID(ctx, "run-finish-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	assert.Equal(t, "load_paysim", got.FailingStage)
	assert.Contains(t, got.ErrorMessage, "no such file")
}

func TestRunStore_Finish_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := testRun("run-missing")
	run.Status = domain.RunStatusSucceeded
	err := store.Finish(ctx, run)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	_, err := store.GetByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	assert.ErrorIs(t, store.Begin(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Begin(ctx, &domain.PipelineRun{}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Finish(ctx, &domain.PipelineRun{}), storage.ErrInvalidInput)

	_, err := store.GetByID(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
