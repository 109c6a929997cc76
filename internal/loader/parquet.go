package loader

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"fraud-pipeline/internal/domain"
)

// readPaySim reads the columnar binary source. The file schema is matched
// against the tagged row struct; extra columns in the file are ignored.
func readPaySim(path string) ([]domain.PaySimTransaction, error) {
	rows, err := parquet.ReadFile[domain.PaySimTransaction](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}

	for i, r := range rows {
		if r.Amount < 0 {
			return nil, fmt.Errorf("row %d: negative amount %f", i, r.Amount)
		}
	}

	return rows, nil
}
