package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountCategory groups accounts for net-worth reporting
type AccountCategory string

const (
	AccountCategoryLiquid     AccountCategory = "liquid"
	AccountCategoryAsset      AccountCategory = "asset"
	AccountCategoryInvestment AccountCategory = "investment"
)

// Account is the read model of a ledger account used by forecasting
type Account struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Category       AccountCategory `db:"category"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`
	CreatedAt      time.Time       `db:"created_at"`
}

// AccountBalance pairs an account with its current balance
type AccountBalance struct {
	AccountID int64
	Category  AccountCategory
	Balance   decimal.Decimal
}
