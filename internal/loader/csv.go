package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"fraud-pipeline/internal/domain"
)

// AML source column headers. The file carries a header row; columns are
// located by name so their order does not matter. The two account columns
// share the "Account" header and are distinguished by position.
const (
	colTimestamp         = "Timestamp"
	colFromBank          = "From Bank"
	colAccount           = "Account"
	colToBank            = "To Bank"
	colAmountReceived    = "Amount Received"
	colReceivingCurrency = "Receiving Currency"
	colAmountPaid        = "Amount Paid"
	colPaymentCurrency   = "Payment Currency"
	colPaymentFormat     = "Payment Format"
	colIsLaundering      = "Is Laundering"
)

type amlColumns struct {
	timestamp         int
	fromBank          int
	fromAccount       int
	toBank            int
	toAccount         int
	amountReceived    int
	receivingCurrency int
	amountPaid        int
	paymentCurrency   int
	paymentFormat     int
	isLaundering      int
}

// readAML reads the delimited-text source with header row.
func readAML(path string) ([]domain.AMLTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var txns []domain.AMLTransaction
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		tx, err := parseAMLRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txns = append(txns, tx)
	}

	return txns, nil
}

// mapColumns locates each known column in the header. Timestamp, Amount
// Paid, Payment Currency and Is Laundering are required; the rest default
// to -1 and parse as zero values.
func mapColumns(header []string) (amlColumns, error) {
	cols := amlColumns{
		timestamp: -1, fromBank: -1, fromAccount: -1, toBank: -1, toAccount: -1,
		amountReceived: -1, receivingCurrency: -1, amountPaid: -1,
		paymentCurrency: -1, paymentFormat: -1, isLaundering: -1,
	}

	for i, name := range header {
		switch name {
		case colTimestamp:
			cols.timestamp = i
		case colFromBank:
			cols.fromBank = i
		case colAccount:
			if cols.fromAccount == -1 {
				cols.fromAccount = i
			} else {
				cols.toAccount = i
			}
		case colToBank:
			cols.toBank = i
		case colAmountReceived:
			cols.amountReceived = i
		case colReceivingCurrency:
			cols.receivingCurrency = i
		case colAmountPaid:
			cols.amountPaid = i
		case colPaymentCurrency:
			cols.paymentCurrency = i
		case colPaymentFormat:
			cols.paymentFormat = i
		case colIsLaundering:
			cols.isLaundering = i
		}
	}

	required := map[string]int{
		colTimestamp:       cols.timestamp,
		colAmountPaid:      cols.amountPaid,
		colPaymentCurrency: cols.paymentCurrency,
		colIsLaundering:    cols.isLaundering,
	}
	for name, idx := range required {
		if idx == -1 {
			return cols, fmt.Errorf("missing required column %q", name)
		}
	}

	return cols, nil
}

func parseAMLRecord(record []string, cols amlColumns) (domain.AMLTransaction, error) {
	var tx domain.AMLTransaction

	get := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	tx.RawTimestamp = get(cols.timestamp)
	tx.FromBank = get(cols.fromBank)
	tx.FromAccount = get(cols.fromAccount)
	tx.ToBank = get(cols.toBank)
	tx.ToAccount = get(cols.toAccount)
	tx.ReceivingCurrency = get(cols.receivingCurrency)
	tx.PaymentCurrency = get(cols.paymentCurrency)
	tx.PaymentFormat = get(cols.paymentFormat)

	var err error
	if s := get(cols.amountPaid); s != "" {
		tx.AmountPaid, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return tx, fmt.Errorf("parse amount paid %q: %w", s, err)
		}
	}
	if tx.AmountPaid < 0 {
		return tx, fmt.Errorf("negative amount paid %f", tx.AmountPaid)
	}

	if s := get(cols.amountReceived); s != "" {
		tx.AmountReceived, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return tx, fmt.Errorf("parse amount received %q: %w", s, err)
		}
	}

	if s := get(cols.isLaundering); s != "" {
		tx.IsLaundering, err = strconv.Atoi(s)
		if err != nil {
			return tx, fmt.Errorf("parse laundering label %q: %w", s, err)
		}
	}

	return tx, nil
}
