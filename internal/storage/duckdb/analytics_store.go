package duckdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

const (
	primaryTable = "fraud_transactions"
	stagingTable = "fraud_transactions_staging"
	alertView    = "high_risk_alerts"

	// Rows per INSERT statement during staging.
	insertBatchSize = 500
)

const columnList = `from_bank, from_account, to_bank, to_account,
	amount_received, receiving_currency, amount_paid, payment_currency,
	payment_format, is_laundering, currency_code, currency_name,
	ts, hour, is_night_transaction, high_amount_flag, aml_alert_flag, cross_risk`

const columnCount = 18

// AnalyticsStore implements storage.AnalyticsStore on DuckDB.
type AnalyticsStore struct {
	db *DB
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Commit stages rows into an intermediate table, atomically replaces the
// primary table with the staged contents and re-derives the alert view.
// A failed stage or replace leaves the previously committed table intact.
// The staging table is dropped on every outcome.
func (s *AnalyticsStore) Commit(ctx context.Context, rows []domain.FinalTransaction) (int, int, error) {
	defer s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", stagingTable))

	if err := s.stage(ctx, rows); err != nil {
		return 0, 0, &storage.CommitError{Err: err}
	}

	// Replace-table semantics: a single statement swaps the whole table.
	replaceSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", primaryTable, stagingTable)
	if _, err := s.db.ExecContext(ctx, replaceSQL); err != nil {
		return 0, 0, &storage.CommitError{Err: fmt.Errorf("replace primary table: %w", err)}
	}

	viewSQL := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %s AS
		SELECT * FROM %s
		WHERE aml_alert_flag = 1 OR cross_risk = 1
		ORDER BY amount_paid DESC
	`, alertView, primaryTable)
	if _, err := s.db.ExecContext(ctx, viewSQL); err != nil {
		return 0, 0, &storage.CommitError{Err: fmt.Errorf("derive alert view: %w", err)}
	}

	total, alerts, err := s.Counts(ctx)
	if err != nil {
		return 0, 0, &storage.CommitError{Err: err}
	}
	return total, alerts, nil
}

// stage materializes rows into the intermediate table.
func (s *AnalyticsStore) stage(ctx context.Context, rows []domain.FinalTransaction) error {
	createSQL := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s (
			from_bank            VARCHAR,
			from_account         VARCHAR,
			to_bank              VARCHAR,
			to_account           VARCHAR,
			amount_received      DOUBLE,
			receiving_currency   VARCHAR,
			amount_paid          DOUBLE,
			payment_currency     VARCHAR,
			payment_format       VARCHAR,
			is_laundering        INTEGER,
			currency_code        VARCHAR,
			currency_name        VARCHAR,
			ts                   TIMESTAMP,
			hour                 INTEGER,
			is_night_transaction INTEGER,
			high_amount_flag     INTEGER,
			aml_alert_flag       INTEGER,
			cross_risk           INTEGER
		)
	`, stagingTable)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.insertBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// insertBatch executes a single multi-row INSERT into staging.
func (s *AnalyticsStore) insertBatch(ctx context.Context, rows []domain.FinalTransaction) error {
	group := "(" + strings.TrimSuffix(strings.Repeat("?,", columnCount), ",") + ")"
	groups := make([]string, len(rows))
	args := make([]any, 0, len(rows)*columnCount)

	for i := range rows {
		groups[i] = group
		r := &rows[i]
		args = append(args,
			r.FromBank, r.FromAccount, r.ToBank, r.ToAccount,
			r.AmountReceived, r.ReceivingCurrency, r.AmountPaid, r.PaymentCurrency,
			r.PaymentFormat, r.IsLaundering, r.CurrencyCode, r.CurrencyName,
			r.Timestamp, r.Hour, r.NightTransaction, r.HighAmountFlag, r.AMLAlertFlag, r.CrossRisk,
		)
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		stagingTable, columnList, strings.Join(groups, ", "))
	if _, err := s.db.ExecContext(ctx, insertSQL, args...); err != nil {
		return fmt.Errorf("stage batch: %w", err)
	}
	return nil
}

// Alerts returns the alert view contents, ordered by amount paid descending.
func (s *AnalyticsStore) Alerts(ctx context.Context) ([]domain.FinalTransaction, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", columnList, alertView)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alert view: %w", err)
	}
	defer rows.Close()

	var result []domain.FinalTransaction
	for rows.Next() {
		var r domain.FinalTransaction
		var ts time.Time
		err := rows.Scan(
			&r.FromBank, &r.FromAccount, &r.ToBank, &r.ToAccount,
			&r.AmountReceived, &r.ReceivingCurrency, &r.AmountPaid, &r.PaymentCurrency,
			&r.PaymentFormat, &r.IsLaundering, &r.CurrencyCode, &r.CurrencyName,
			&ts, &r.Hour, &r.NightTransaction, &r.HighAmountFlag, &r.AMLAlertFlag, &r.CrossRisk,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		r.Timestamp = ts
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return result, nil
}

// Counts returns total and alert row counts for the committed table.
func (s *AnalyticsStore) Counts(ctx context.Context) (int, int, error) {
	var total, alerts int

	totalSQL := fmt.Sprintf("SELECT count(*) FROM %s", primaryTable)
	if err := s.db.QueryRowContext(ctx, totalSQL).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count primary table: %w", err)
	}

	alertSQL := fmt.Sprintf("SELECT count(*) FROM %s", alertView)
	if err := s.db.QueryRowContext(ctx, alertSQL).Scan(&alerts); err != nil {
		return 0, 0, fmt.Errorf("count alert view: %w", err)
	}

	return total, alerts, nil
}
