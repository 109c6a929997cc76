// Package enrich joins transactions against the currency lookup and
// derives the temporal and amount-based risk flags.
package enrich

import (
	"context"
	"fmt"
	"time"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/logger"
)

// timestampLayout is the raw source format: year/month/day hour:minute.
const timestampLayout = "2006/01/02 15:04"

// EnrichError reports a failed enrichment. The orchestrator retries it per
// its configured budget before aborting the run.
type EnrichError struct {
	Err error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrichment: %v", e.Err)
}

func (e *EnrichError) Unwrap() error {
	return e.Err
}

// Options holds the run's fixed flagging constants.
//
// JoinOnCode controls the currency join predicate. The inherited behavior
// matches the transaction's payment-currency value against the lookup's
// *name* column; that asymmetry is kept as the default because the alert
// flags never read the joined name, so changing it would alter the join
// result set without changing any alert. Set JoinOnCode to match against
// lookup codes instead.
type Options struct {
	HighAmountLimit float64
	NightStartHour  int
	NightEndHour    int
	JoinOnCode      bool
}

// DefaultOptions returns the flagging constants used in production runs.
func DefaultOptions() Options {
	return Options{
		HighAmountLimit: 1_000_000,
		NightStartHour:  6,
		NightEndHour:    21,
	}
}

// Enrich left-joins transactions to the currency lookup, normalizes the raw
// timestamp and derives the night, high-amount and AML alert flags. Input
// slices are never mutated; every call produces a new table.
func Enrich(ctx context.Context, txns []domain.AMLTransaction, lookup []domain.CurrencyPair, opts Options) ([]domain.EnrichedTransaction, error) {
	byKey := make(map[string]domain.CurrencyPair, len(lookup))
	for _, pair := range lookup {
		key := pair.Name
		if opts.JoinOnCode {
			key = pair.Code
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = pair
		}
	}

	enriched := make([]domain.EnrichedTransaction, 0, len(txns))
	for i, tx := range txns {
		if err := ctx.Err(); err != nil {
			return nil, &EnrichError{Err: err}
		}

		ts, err := time.Parse(timestampLayout, tx.RawTimestamp)
		if err != nil {
			return nil, &EnrichError{Err: fmt.Errorf("row %d: parse timestamp %q: %w", i, tx.RawTimestamp, err)}
		}

		row := domain.EnrichedTransaction{
			FromBank:          tx.FromBank,
			FromAccount:       tx.FromAccount,
			ToBank:            tx.ToBank,
			ToAccount:         tx.ToAccount,
			AmountReceived:    tx.AmountReceived,
			ReceivingCurrency: tx.ReceivingCurrency,
			AmountPaid:        tx.AmountPaid,
			PaymentCurrency:   tx.PaymentCurrency,
			PaymentFormat:     tx.PaymentFormat,
			IsLaundering:      tx.IsLaundering,
			Timestamp:         ts,
			Hour:              ts.Hour(),
		}

		// Left join: unmatched rows keep empty currency columns.
		if pair, ok := byKey[tx.PaymentCurrency]; ok {
			row.CurrencyCode = pair.Code
			row.CurrencyName = pair.Name
		}

		row.NightTransaction = NightFlag(row.Hour, opts)
		row.HighAmountFlag = HighAmountFlag(row.AmountPaid, opts)
		row.AMLAlertFlag = AMLAlertFlag(row.AmountPaid, opts)

		enriched = append(enriched, row)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(enriched)).
		Msg("enrichment and flagging complete")

	return enriched, nil
}

// NightFlag returns 1 when the hour falls outside [NightStartHour, NightEndHour].
func NightFlag(hour int, opts Options) int {
	if hour < opts.NightStartHour || hour > opts.NightEndHour {
		return 1
	}
	return 0
}

// HighAmountFlag returns 1 when the amount strictly exceeds the limit.
func HighAmountFlag(amount float64, opts Options) int {
	if amount > opts.HighAmountLimit {
		return 1
	}
	return 0
}

// AMLAlertFlag mirrors HighAmountFlag. Redundant today, but it is the
// designated alert channel for this dataset and stays a distinct field.
func AMLAlertFlag(amount float64, opts Options) int {
	return HighAmountFlag(amount, opts)
}
