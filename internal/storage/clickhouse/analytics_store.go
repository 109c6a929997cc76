package clickhouse

import (
	"context"
	"fmt"
	"time"

	"fraud-pipeline/internal/domain"
	"fraud-pipeline/internal/storage"
)

const (
	primaryTable = "fraud_transactions"
	stagingTable = "fraud_transactions_staging"
	alertView    = "high_risk_alerts"
)

const tableSchema = `(
	from_bank            String,
	from_account         String,
	to_bank              String,
	to_account           String,
	amount_received      Float64,
	receiving_currency   String,
	amount_paid          Float64,
	payment_currency     String,
	payment_format       String,
	is_laundering        Int32,
	currency_code        String,
	currency_name        String,
	ts                   DateTime,
	hour                 Int32,
	is_night_transaction Int32,
	high_amount_flag     Int32,
	aml_alert_flag       Int32,
	cross_risk           Int32
) ENGINE = MergeTree ORDER BY (amount_paid)`

// AnalyticsStore implements storage.AnalyticsStore on ClickHouse. The
// staged table is swapped in with EXCHANGE TABLES, which is atomic under
// the Atomic database engine, so a failed stage never touches the
// committed table.
type AnalyticsStore struct {
	conn *Conn
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(conn *Conn) *AnalyticsStore {
	return &AnalyticsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Commit stages rows, swaps the staged table in as the primary table and
// re-derives the alert view.
func (s *AnalyticsStore) Commit(ctx context.Context, rows []domain.FinalTransaction) (int, int, error) {
	defer s.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", stagingTable))

	if err := s.stage(ctx, rows); err != nil {
		return 0, 0, &storage.CommitError{Err: err}
	}

	ensureSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", primaryTable, tableSchema)
	if err := s.conn.Exec(ctx, ensureSQL); err != nil {
		return 0, 0, &storage.CommitError{Err: fmt.Errorf("ensure primary table: %w", err)}
	}

	swapSQL := fmt.Sprintf("EXCHANGE TABLES %s AND %s", stagingTable, primaryTable)
	if err := s.conn.Exec(ctx, swapSQL); err != nil {
		return 0, 0, &storage.CommitError{Err: fmt.Errorf("swap staged table: %w", err)}
	}

	viewSQL := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %s AS
		SELECT * FROM %s
		WHERE aml_alert_flag = 1 OR cross_risk = 1
		ORDER BY amount_paid DESC
	`, alertView, primaryTable)
	if err := s.conn.Exec(ctx, viewSQL); err != nil {
		return 0, 0, &storage.CommitError{Err: fmt.Errorf("derive alert view: %w", err)}
	}

	total, alerts, err := s.Counts(ctx)
	if err != nil {
		return 0, 0, &storage.CommitError{Err: err}
	}
	return total, alerts, nil
}

// stage creates the staging table and batch-inserts all rows into it.
func (s *AnalyticsStore) stage(ctx context.Context, rows []domain.FinalTransaction) error {
	createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s %s", stagingTable, tableSchema)
	if err := s.conn.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", stagingTable))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		err = batch.Append(
			r.FromBank, r.FromAccount, r.ToBank, r.ToAccount,
			r.AmountReceived, r.ReceivingCurrency, r.AmountPaid, r.PaymentCurrency,
			r.PaymentFormat, r.IsLaundering, r.CurrencyCode, r.CurrencyName,
			r.Timestamp, int32(r.Hour), int32(r.NightTransaction),
			int32(r.HighAmountFlag), int32(r.AMLAlertFlag), int32(r.CrossRisk),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Alerts returns the alert view contents, ordered by amount paid descending.
func (s *AnalyticsStore) Alerts(ctx context.Context) ([]domain.FinalTransaction, error) {
	query := fmt.Sprintf(`
		SELECT from_bank, from_account, to_bank, to_account,
			amount_received, receiving_currency, amount_paid, payment_currency,
			payment_format, is_laundering, currency_code, currency_name,
			ts, hour, is_night_transaction, high_amount_flag, aml_alert_flag, cross_risk
		FROM %s
		ORDER BY amount_paid DESC
	`, alertView)

	chRows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alert view: %w", err)
	}
	defer chRows.Close()

	var result []domain.FinalTransaction
	for chRows.Next() {
		var r domain.FinalTransaction
		var ts time.Time
		var isLaundering, hour, night, high, aml, cross int32
		err := chRows.Scan(
			&r.FromBank, &r.FromAccount, &r.ToBank, &r.ToAccount,
			&r.AmountReceived, &r.ReceivingCurrency, &r.AmountPaid, &r.PaymentCurrency,
			&r.PaymentFormat, &isLaundering, &r.CurrencyCode, &r.CurrencyName,
			&ts, &hour, &night, &high, &aml, &cross,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		r.IsLaundering = int(isLaundering)
		r.Timestamp = ts
		r.Hour = int(hour)
		r.NightTransaction = int(night)
		r.HighAmountFlag = int(high)
		r.AMLAlertFlag = int(aml)
		r.CrossRisk = int(cross)
		result = append(result, r)
	}
	if err := chRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return result, nil
}

// Counts returns total and alert row counts for the committed table.
func (s *AnalyticsStore) Counts(ctx context.Context) (int, int, error) {
	var total, alerts uint64

	totalSQL := fmt.Sprintf("SELECT count(*) FROM %s", primaryTable)
	if err := s.conn.QueryRow(ctx, totalSQL).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count primary table: %w", err)
	}

	alertSQL := fmt.Sprintf("SELECT count(*) FROM %s", alertView)
	if err := s.conn.QueryRow(ctx, alertSQL).Scan(&alerts); err != nil {
		return 0, 0, fmt.Errorf("count alert view: %w", err)
	}

	return int(total), int(alerts), nil
}
