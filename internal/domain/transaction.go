// Package domain defines the row types flowing through the fraud pipeline.
package domain

// PaySimTransaction is a row from the independent simulated-fraud source.
// Read from a Parquet file; column names follow the published dataset.
type PaySimTransaction struct {
	Step           int32   `parquet:"step"`
	Type           string  `parquet:"type"`
	Amount         float64 `parquet:"amount"`
	NameOrig       string  `parquet:"nameOrig"`
	OldBalanceOrig float64 `parquet:"oldbalanceOrg"`
	NewBalanceOrig float64 `parquet:"newbalanceOrig"`
	NameDest       string  `parquet:"nameDest"`
	OldBalanceDest float64 `parquet:"oldbalanceDest"`
	NewBalanceDest float64 `parquet:"newbalanceDest"`
	IsFraud        int32   `parquet:"isFraud"`
	IsFlaggedFraud int32   `parquet:"isFlaggedFraud"`
}

// AMLTransaction is a row from the primary alert dataset (delimited text
// with header). RawTimestamp keeps the source format "year/month/day
// hour:minute" until enrichment normalizes it.
type AMLTransaction struct {
	RawTimestamp      string
	FromBank          string
	FromAccount       string
	ToBank            string
	ToAccount         string
	AmountReceived    float64
	ReceivingCurrency string
	AmountPaid        float64
	PaymentCurrency   string
	PaymentFormat     string
	IsLaundering      int
}

// CurrencyPair is one code → name entry expanded from the currency lookup
// object. Codes are unique within a load; the slice is read-only after load.
type CurrencyPair struct {
	Code string
	Name string
}
