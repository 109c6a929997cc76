package domain

import "time"

// EnrichedTransaction is an AMLTransaction after currency join and flag
// derivation. The raw timestamp string is dropped in favor of Timestamp.
// Every flag is a pure function of the row's own fields and the run's fixed
// limits; no field depends on another enriched row.
type EnrichedTransaction struct {
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

	// Joined from the currency lookup; empty when the left join found no
	// match.
	CurrencyCode string
	CurrencyName string

	Timestamp        time.Time
	Hour             int
	NightTransaction int
	HighAmountFlag   int
	AMLAlertFlag     int
}

// FinalTransaction is an EnrichedTransaction plus the cross-reference flag
// derived from the independent source's fraud threshold.
type FinalTransaction struct {
	EnrichedTransaction

	CrossRisk int
}

// IsAlert reports whether the row belongs in the high-risk alert view.
func (t *FinalTransaction) IsAlert() bool {
	return t.AMLAlertFlag == 1 || t.CrossRisk == 1
}
