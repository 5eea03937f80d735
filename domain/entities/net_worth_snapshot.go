package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is a daily capture of total wealth
type NetWorthSnapshot struct {
	ID          int64           `db:"id"`
	CapturedOn  time.Time       `db:"captured_on"`
	Liquid      decimal.Decimal `db:"liquid"`
	Assets      decimal.Decimal `db:"assets"`
	Investments decimal.Decimal `db:"investments"`
	NetWorth    decimal.Decimal `db:"net_worth"`
	CreatedAt   time.Time       `db:"created_at"`
}

// NewNetWorthSnapshot totals account balances by category
func NewNetWorthSnapshot(capturedOn time.Time, balances []*AccountBalance) *NetWorthSnapshot {
	snapshot := &NetWorthSnapshot{
		CapturedOn:  DateOf(capturedOn),
		Liquid:      decimal.Zero,
		Assets:      decimal.Zero,
		Investments: decimal.Zero,
	}
	for _, b := range balances {
		switch b.Category {
		case AccountCategoryAsset:
			snapshot.Assets = snapshot.Assets.Add(b.Balance)
		case AccountCategoryInvestment:
			snapshot.Investments = snapshot.Investments.Add(b.Balance)
		default:
			snapshot.Liquid = snapshot.Liquid.Add(b.Balance)
		}
	}
	snapshot.NetWorth = snapshot.Liquid.Add(snapshot.Assets).Add(snapshot.Investments)
	return snapshot
}
