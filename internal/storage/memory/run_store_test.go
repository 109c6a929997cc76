package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

func TestRunStore_BeginAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PipelineRun{
		RunID:     "run-001",
		StartedAt: time.Now().UnixMilli(),
		Status:    domain.RunStatusRunning,
	}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusRunning {
		t.Errorf("status = %s, want RUNNING", got.Status)
	}
}

func TestRunStore_BeginDuplicate(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PipelineRun{RunID: "run-001", Status: domain.RunStatusRunning}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Begin(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_Finish(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PipelineRun{RunID: "run-001", Status: domain.RunStatusRunning}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	run.Status = domain.RunStatusFailed
	run.FailingStage = "commit"
	run.ErrorMessage = "sink unavailable"
	run.FinishedAt = time.Now().UnixMilli()
	if err := store.Finish(ctx, run); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusFailed || got.FailingStage != "commit" {
		t.Errorf("unexpected run record: %+v", got)
	}
}

func TestRunStore_FinishUnknownRun(t *testing.T) {
	store := NewRunStore()

	err := store.Finish(context.Background(), &domain.PipelineRun{RunID: "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_InvalidInput(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Begin(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil run, got %v", err)
	}
	if err := store.Begin(ctx, &domain.PipelineRun{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty run ID, got %v", err)
	}
}
