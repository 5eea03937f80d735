package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastPoint is one projected daily balance
type ForecastPoint struct {
	Date    time.Time
	Balance decimal.Decimal
}

// MarshalJSON renders the point as {date: "YYYY-MM-DD", balance: "123.45"}
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date    string          `json:"date"`
		Balance decimal.Decimal `json:"balance"`
	}{
		Date:    FormatDate(p.Date),
		Balance: p.Balance,
	})
}

// HistoricalSnapshot is one observation of the net-worth series
type HistoricalSnapshot struct {
	Index float64
	Value decimal.Decimal
}

// TrendLine is the fitted y = slope*x + intercept
type TrendLine struct {
	Slope     decimal.Decimal `json:"slope"`
	Intercept decimal.Decimal `json:"intercept"`
}

// TrendReport is the net-worth trend returned to API callers
type TrendReport struct {
	TrendLine
	Historical []decimal.Decimal `json:"historical"`
	Trend      []decimal.Decimal `json:"trend"`
	Labels     []string          `json:"labels"`
}
