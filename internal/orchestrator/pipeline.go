package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fraud-pipeline/internal/crossref"
	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/enrich"
	"fraud-pipeline/internal/idhash"
	"fraud-pipeline/internal/loader"
	"fraud-pipeline/internal/logger"
	"fraud-pipeline/internal/storage"
)

// Task names as recorded in results and the run ledger.
const (
	TaskLoadPaySim   = "load_paysim"
	TaskLoadAML      = "load_aml"
	TaskLoadCurrency = "load_currency"
	TaskEnrich       = "enrich_transactions"
	TaskCrossRef     = "cross_reference"
	TaskCommit       = "commit_results"
)

// Pipeline is the concrete task graph: three loads fan out on a bounded
// worker pool, enrichment joins the AML and currency branches, the
// cross-reference joins the enriched rows with the independent PaySim branch,
// and the commit replaces the sink table last.
type Pipeline struct {
	analytics storage.AnalyticsStore
	runs      storage.RunStore

	paySimPath   string
	amlPath      string
	currencyPath string

	enrichOpts   enrich.Options
	crossRefOpts crossref.Options

	workers        int
	loadPolicy     Policy
	enrichPolicy   Policy
	crossRefPolicy Policy
	commitPolicy   Policy

	engine *Engine
}

// PipelineOptions for creating a Pipeline.
type PipelineOptions struct {
	// Analytics is the sink the final rows are committed to. Required.
	Analytics storage.AnalyticsStore

	// Runs is the optional run ledger. Nil disables ledger writes.
	Runs storage.RunStore

	// Source locations.
	PaySimPath   string
	AMLPath      string
	CurrencyPath string

	Enrich   enrich.Options
	CrossRef crossref.Options

	// Workers bounds concurrent source loads.
	Workers int

	LoadPolicy     Policy
	EnrichPolicy   Policy
	CrossRefPolicy Policy
	CommitPolicy   Policy

	// Engine overrides the default engine. Shared engines keep the load
	// cache warm across runs; tests use it to control the clock.
	Engine *Engine
}

// NewPipeline creates a new Pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	eng := opts.Engine
	if eng == nil {
		eng = NewEngine(EngineOptions{})
	}
	return &Pipeline{
		analytics:      opts.Analytics,
		runs:           opts.Runs,
		paySimPath:     opts.PaySimPath,
		amlPath:        opts.AMLPath,
		currencyPath:   opts.CurrencyPath,
		enrichOpts:     opts.Enrich,
		crossRefOpts:   opts.CrossRef,
		workers:        workers,
		loadPolicy:     opts.LoadPolicy,
		enrichPolicy:   opts.EnrichPolicy,
		crossRefPolicy: opts.CrossRefPolicy,
		commitPolicy:   opts.CommitPolicy,
		engine:         eng,
	}
}

// RunResult contains results from one pipeline run.
type RunResult struct {
	RunID  string
	Total  int
	Alerts int
	Tasks  []TaskResult
}

// Run executes the full pipeline. A fatal task failure cancels the remaining
// graph before anything reaches the sink, so a failed run never commits.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	p.engine.Reset()

	run := &domain.PipelineRun{
		RunID:     runID,
		StartedAt: time.Now().UnixMilli(),
		Status:    domain.RunStatusRunning,
	}
	p.beginLedger(ctx, run)

	log.Info().Msg("pipeline run started")

	final, err := p.execute(ctx)
	if err != nil {
		p.finishLedger(ctx, run, err)
		log.Error().Err(err).Msg("pipeline run failed")
		return nil, err
	}

	committed, err := Execute(ctx, p.engine, TaskSpec{
		Name:   TaskCommit,
		Policy: p.commitPolicy,
	}, func(ctx context.Context) (counts, error) {
		t, a, err := p.analytics.Commit(ctx, final)
		return counts{total: t, alerts: a}, err
	})
	if err != nil {
		p.finishLedger(ctx, run, err)
		log.Error().Err(err).Msg("pipeline run failed")
		return nil, err
	}

	run.Status = domain.RunStatusSucceeded
	run.FinishedAt = time.Now().UnixMilli()
	run.TotalCount = committed.total
	run.AlertCount = committed.alerts
	p.updateLedger(ctx, run)

	log.Info().
		Int("total", committed.total).
		Int("alerts", committed.alerts).
		Msg("pipeline run succeeded")

	return &RunResult{
		RunID:  runID,
		Total:  committed.total,
		Alerts: committed.alerts,
		Tasks:  p.engine.Results(),
	}, nil
}

// counts carries the sink's commit counters through Execute.
type counts struct {
	total  int
	alerts int
}

// execute runs the graph up to (not including) the commit.
func (p *Pipeline) execute(ctx context.Context) ([]domain.FinalTransaction, error) {
	var (
		paySim   *domain.Dataset
		aml      *domain.Dataset
		currency *domain.Dataset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	g.Go(func() error {
		var err error
		paySim, err = p.load(gctx, TaskLoadPaySim, domain.SourcePaySim, p.paySimPath)
		return err
	})
	g.Go(func() error {
		var err error
		aml, err = p.load(gctx, TaskLoadAML, domain.SourceAML, p.amlPath)
		return err
	})
	g.Go(func() error {
		var err error
		currency, err = p.load(gctx, TaskLoadCurrency, domain.SourceCurrency, p.currencyPath)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	enriched, err := Execute(ctx, p.engine, TaskSpec{
		Name:   TaskEnrich,
		Policy: p.enrichPolicy,
	}, func(ctx context.Context) ([]domain.EnrichedTransaction, error) {
		return enrich.Enrich(ctx, aml.AML, currency.Currency, p.enrichOpts)
	})
	if err != nil {
		return nil, err
	}

	final, err := Execute(ctx, p.engine, TaskSpec{
		Name:      TaskCrossRef,
		Policy:    p.crossRefPolicy,
		Permanent: []error{crossref.ErrThresholdUndefined},
	}, func(ctx context.Context) ([]domain.FinalTransaction, error) {
		return crossref.CrossReference(ctx, paySim.PaySim, enriched, p.crossRefOpts)
	})
	if err != nil {
		return nil, err
	}

	return final, nil
}

// load runs one source load task, cached by source name and location.
func (p *Pipeline) load(ctx context.Context, name string, kind domain.SourceKind, location string) (*domain.Dataset, error) {
	return Execute(ctx, p.engine, TaskSpec{
		Name:     name,
		Policy:   p.loadPolicy,
		CacheKey: idhash.TaskKey(name, location),
	}, func(ctx context.Context) (*domain.Dataset, error) {
		return loader.Load(ctx, kind, location)
	})
}

func (p *Pipeline) beginLedger(ctx context.Context, run *domain.PipelineRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Begin(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("run ledger begin failed")
	}
}

func (p *Pipeline) finishLedger(ctx context.Context, run *domain.PipelineRun, cause error) {
	run.Status = domain.RunStatusFailed
	run.FinishedAt = time.Now().UnixMilli()
	run.ErrorMessage = cause.Error()

	var fatal *FatalError
	if errors.As(cause, &fatal) {
		run.FailingStage = fatal.Task
	}

	p.updateLedger(ctx, run)
}

func (p *Pipeline) updateLedger(ctx context.Context, run *domain.PipelineRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Finish(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("run ledger finish failed")
	}
}
