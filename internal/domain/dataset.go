package domain

// SourceKind identifies one of the three heterogeneous input sources.
type SourceKind string

const (
	SourcePaySim   SourceKind = "paysim"
	SourceAML      SourceKind = "aml"
	SourceCurrency SourceKind = "currency"
)

// Dataset is the uniform result of loading one source. Exactly one of the
// row slices is populated, selected by Kind.
type Dataset struct {
	Kind     SourceKind
	Location string

	PaySim   []PaySimTransaction
	AML      []AMLTransaction
	Currency []CurrencyPair
}

// RowCount returns the number of rows loaded for the dataset's kind.
func (d *Dataset) RowCount() int {
	switch d.Kind {
	case SourcePaySim:
		return len(d.PaySim)
	case SourceAML:
		return len(d.AML)
	case SourceCurrency:
		return len(d.Currency)
	default:
		return 0
	}
}
