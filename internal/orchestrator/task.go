// Package orchestrator executes the batch pipeline as a set of retryable
// tasks: three source loads fan out on a bounded worker pool, enrichment and
// cross-reference follow their inputs, and the sink commit runs last.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/logger"
)

// ErrTimeoutExceeded is the cancellation cause when a task overruns its
// per-attempt timeout.
var ErrTimeoutExceeded = errors.New("task timeout exceeded")

// FatalError is returned when a task has exhausted its retry budget.
type FatalError struct {
	Task     string
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("task %s failed after %d attempts: %v", e.Task, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Policy holds the resilience knobs for one task.
type Policy struct {
	MaxRetries   int           // retries after the first attempt
	InitialDelay time.Duration // delay before the first retry
	Exponential  bool          // exponential vs constant delay
	Timeout      time.Duration // per-attempt deadline, 0 disables
	CacheTTL     time.Duration // result freshness window, 0 disables caching
}

// TaskSpec identifies a task and its execution policy.
type TaskSpec struct {
	Name   string
	Policy Policy

	// CacheKey enables result caching when non-empty. Tasks with the same
	// key within the freshness window return the cached result without
	// re-running.
	CacheKey string

	// Permanent lists error causes that must not be retried.
	Permanent []error
}

// TaskResult records one task's terminal state.
type TaskResult struct {
	Name     string
	State    domain.TaskState
	Attempts int
	CacheHit bool
	Err      error
	Duration time.Duration
}

// Execute runs fn under the task's policy: cache lookup, per-attempt timeout,
// retry with backoff, and a *FatalError once the budget is exhausted. The
// terminal state is recorded on the engine.
func Execute[T any](ctx context.Context, eng *Engine, spec TaskSpec, fn func(context.Context) (T, error)) (T, error) {
	log := logger.FromContext(ctx).With().Str("task", spec.Name).Logger()
	start := eng.now()

	var zero T

	if spec.CacheKey != "" && spec.Policy.CacheTTL > 0 {
		if cached, ok := eng.cache.get(spec.CacheKey, spec.Policy.CacheTTL, eng.now()); ok {
			log.Debug().Msg("cache hit, skipping execution")
			eng.record(TaskResult{
				Name:     spec.Name,
				State:    domain.TaskSucceeded,
				CacheHit: true,
				Duration: eng.now().Sub(start),
			})
			return cached.(T), nil
		}
	}

	var value T
	attempts := 0

	log.Debug().Str("state", string(domain.TaskPending)).Msg("task scheduled")

	operation := func() error {
		attempts++
		log.Debug().Str("state", string(domain.TaskRunning)).Int("attempt", attempts).Msg("task started")

		runCtx := ctx
		cancel := context.CancelFunc(func() {})
		if spec.Policy.Timeout > 0 {
			runCtx, cancel = context.WithTimeoutCause(ctx, spec.Policy.Timeout, ErrTimeoutExceeded)
		}
		defer cancel()

		v, err := fn(runCtx)
		if err != nil {
			if cause := context.Cause(runCtx); errors.Is(cause, ErrTimeoutExceeded) {
				err = fmt.Errorf("%w: %v", ErrTimeoutExceeded, err)
			}
			for _, p := range spec.Permanent {
				if errors.Is(err, p) {
					return backoff.Permanent(err)
				}
			}
			log.Warn().Err(err).Str("state", string(domain.TaskFailed)).Int("attempt", attempts).Msg("task attempt failed")
			return err
		}

		value = v
		return nil
	}

	err := backoff.Retry(operation, newBackOff(ctx, spec.Policy))
	if err != nil {
		eng.record(TaskResult{
			Name:     spec.Name,
			State:    domain.TaskFatallyFailed,
			Attempts: attempts,
			Err:      err,
			Duration: eng.now().Sub(start),
		})
		return zero, &FatalError{Task: spec.Name, Attempts: attempts, Err: err}
	}

	if spec.CacheKey != "" && spec.Policy.CacheTTL > 0 {
		eng.cache.put(spec.CacheKey, value, eng.now())
	}

	eng.record(TaskResult{
		Name:     spec.Name,
		State:    domain.TaskSucceeded,
		Attempts: attempts,
		Duration: eng.now().Sub(start),
	})
	return value, nil
}

// newBackOff builds the retry schedule for a policy: constant or exponential
// delay, capped at MaxRetries, cancelled with the context.
func newBackOff(ctx context.Context, p Policy) backoff.BackOffContext {
	var b backoff.BackOff
	if p.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.InitialDelay
		eb.MaxElapsedTime = 0
		b = eb
	} else {
		b = backoff.NewConstantBackOff(p.InitialDelay)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)
}
