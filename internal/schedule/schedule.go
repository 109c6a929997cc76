// Package schedule provides the fixed daily trigger for recurring runs.
package schedule

import (
	"context"
	"time"

	"fraud-pipeline/internal/logger"
)

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Next returns the first occurrence of the trigger time strictly after now,
// in now's location. A trigger earlier in the current day rolls to tomorrow.
func Next(now time.Time, at TimeOfDay) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run invokes fn once per day at the trigger time until the context is
// cancelled. A failed invocation is logged and does not stop the schedule;
// the next trigger fires a day later regardless of how long fn ran.
func Run(ctx context.Context, at TimeOfDay, fn func(context.Context) error) error {
	log := logger.FromContext(ctx)

	for {
		next := Next(time.Now(), at)
		log.Info().Time("next_run", next).Msg("waiting for next scheduled run")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	}
}
