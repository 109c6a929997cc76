package schedule

import (
	"context"
	"testing"
	"time"
)

func TestNext_LaterToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)
	next := Next(now, TimeOfDay{Hour: 2, Minute: 0})

	want := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_RollsToTomorrow(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	next := Next(now, TimeOfDay{Hour: 2, Minute: 0})

	want := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_ExactTriggerMomentRolls(t *testing.T) {
	now := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	next := Next(now, TimeOfDay{Hour: 2, Minute: 0})

	if !next.After(now) {
		t.Errorf("Next must be strictly after now, got %v", next)
	}
	if next.Day() != 11 {
		t.Errorf("expected roll to the 11th, got %v", next)
	}
}

func TestNext_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)
	next := Next(now, TimeOfDay{Hour: 2, Minute: 15})

	if next.Location() != loc {
		t.Errorf("location not preserved: %v", next.Location())
	}
	if next.Hour() != 2 || next.Minute() != 15 {
		t.Errorf("wrong wall-clock time: %v", next)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, TimeOfDay{Hour: 2}, func(context.Context) error {
		t.Fatal("fn must not run when the context is already cancelled")
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
}
