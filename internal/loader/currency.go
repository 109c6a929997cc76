package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"fraud-pipeline/internal/domain"
)

// readCurrency reads the currency lookup source. Each logical record is one
// JSON object whose body is a flat string-to-string mapping; every key/value
// pair becomes one (code, name) row. Codes must be unique within a load.
// Rows are returned sorted by code so a reload yields an identical table.
func readCurrency(path string) ([]domain.CurrencyPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open currency file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	seen := make(map[string]struct{})
	var pairs []domain.CurrencyPair
	for record := 1; ; record++ {
		var mapping map[string]string
		if err := dec.Decode(&mapping); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("record %d: parse currency object: %w", record, err)
		}

		for code, name := range mapping {
			if _, dup := seen[code]; dup {
				return nil, fmt.Errorf("record %d: duplicate currency code %q", record, code)
			}
			seen[code] = struct{}{}
			pairs = append(pairs, domain.CurrencyPair{Code: code, Name: name})
		}
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("currency file contains no mappings")
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Code < pairs[j].Code })

	return pairs, nil
}
