package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns are selected as ::text and bound as $n::text::numeric
// so values round-trip through shopspring/decimal without float conversion.

func parseNumeric(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric in %s: %w", column, err)
	}
	return d, nil
}
