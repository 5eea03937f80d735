package dto

import (
	"time"

	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
)

// AccountForecast is a projected balance curve for one account
type AccountForecast struct {
	AccountID      int64                    `json:"account_id"`
	AccountName    string                   `json:"account_name"`
	AsOf           string                   `json:"as_of"`
	CurrentBalance decimal.Decimal          `json:"current_balance"`
	Days           int                      `json:"days"`
	Points         []entities.ForecastPoint `json:"points"`
}

// NewAccountForecast builds the response for a computed forecast
func NewAccountForecast(account *entities.Account, asOf time.Time, balance decimal.Decimal, days int, points []entities.ForecastPoint) *AccountForecast {
	return &AccountForecast{
		AccountID:      account.ID,
		AccountName:    account.Name,
		AsOf:           entities.FormatDate(asOf),
		CurrentBalance: balance,
		Days:           days,
		Points:         points,
	}
}
