// Package crossref flags enriched transactions against a statistical
// threshold derived from the independent fraud-labeled source.
package crossref

import (
	"context"
	"errors"

	"github.com/beorn7/perks/quantile"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/logger"
)

// ErrThresholdUndefined is returned when the independent source contains no
// fraud-labeled rows: the quantile has no defined value and the run must
// fail explicitly rather than default to zero or infinity.
var ErrThresholdUndefined = errors.New("risk threshold undefined: no fraud-labeled rows in independent source")

// Options holds the quantile configuration. Epsilon is the estimator's
// relative-error tolerance; both are fixed for a run.
type Options struct {
	Quantile float64
	Epsilon  float64
}

// DefaultOptions returns the production configuration: the 95th percentile
// within 1% relative error.
func DefaultOptions() Options {
	return Options{Quantile: 0.95, Epsilon: 0.01}
}

// Threshold computes the configured quantile of the amount field over the
// fraud-labeled subset of the independent source. The estimate is computed
// with a streaming targeted-quantile sketch, so no full sort of the dataset
// is required; the result depends on the subset as a set, not on row order,
// within the configured tolerance.
func Threshold(txns []domain.PaySimTransaction, opts Options) (float64, error) {
	stream := quantile.NewTargeted(map[float64]float64{opts.Quantile: opts.Epsilon})

	labeled := 0
	for _, tx := range txns {
		if tx.IsFraud == 1 {
			stream.Insert(tx.Amount)
			labeled++
		}
	}

	if labeled == 0 {
		return 0, ErrThresholdUndefined
	}

	return stream.Query(opts.Quantile), nil
}

// Apply sets the cross-reference flag on every enriched row: 1 when the
// amount strictly exceeds the threshold. The input slice is not mutated.
func Apply(ctx context.Context, enriched []domain.EnrichedTransaction, threshold float64) []domain.FinalTransaction {
	final := make([]domain.FinalTransaction, len(enriched))
	for i, row := range enriched {
		final[i] = domain.FinalTransaction{EnrichedTransaction: row}
		if row.AmountPaid > threshold {
			final[i].CrossRisk = 1
		}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Float64("threshold", threshold).
		Int("rows", len(final)).
		Msg("cross-reference complete")

	return final
}

// CrossReference is the full branch: threshold derivation followed by
// flagging. It reads only its two inputs, so the orchestrator can run it
// independently of sibling tasks.
func CrossReference(ctx context.Context, independent []domain.PaySimTransaction, enriched []domain.EnrichedTransaction, opts Options) ([]domain.FinalTransaction, error) {
	threshold, err := Threshold(independent, opts)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, enriched, threshold), nil
}
