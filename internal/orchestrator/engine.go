package orchestrator

import (
	"sync"
	"time"
)

// Engine holds the shared state tasks execute against: the result cache and
// the per-run task records. One engine can serve many runs; the cache
// survives across them so unchanged inputs are not re-read.
type Engine struct {
	cache *resultCache
	clock func() time.Time

	mu      sync.Mutex
	results []TaskResult
}

// EngineOptions for creating an Engine.
type EngineOptions struct {
	// Clock overrides time.Now, used by tests to control cache freshness.
	Clock func() time.Time
}

// NewEngine creates a new task execution engine.
func NewEngine(opts EngineOptions) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		cache: newResultCache(),
		clock: clock,
	}
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) record(r TaskResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, r)
}

// Results returns the recorded task results in completion order.
func (e *Engine) Results() []TaskResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TaskResult, len(e.results))
	copy(out, e.results)
	return out
}

// Reset clears recorded results ahead of a new run. The cache is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = nil
}
