package testutil

import (
	"context"
	"testing"
	"time"

	"fintrack/database"
	"fintrack/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// AccountSeed describes an account row to insert
type AccountSeed struct {
	Name     string
	Category entities.AccountCategory
	Opening  string
}

// SeedAccounts inserts all accounts in one transaction and returns their IDs in order
func SeedAccounts(t *testing.T, db *database.DB, seeds ...AccountSeed) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(seeds))
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		for _, seed := range seeds {
			var id int64
			err := tx.QueryRow(context.Background(), `
				INSERT INTO accounts (name, category, opening_balance)
				VALUES ($1, $2, $3::text::numeric)
				RETURNING id
			`, seed.Name, string(seed.Category), seed.Opening).Scan(&id)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

// InsertAccount creates an account row and returns its ID
func InsertAccount(t *testing.T, db *database.DB, name string, category entities.AccountCategory, opening string) int64 {
	t.Helper()
	return SeedAccounts(t, db, AccountSeed{Name: name, Category: category, Opening: opening})[0]
}

// CreateTestSchedule builds a monthly withdrawal schedule that has not been persisted
func CreateTestSchedule(accountID int64, start time.Time) *entities.RecurrenceSchedule {
	return &entities.RecurrenceSchedule{
		AccountID:      accountID,
		PayeeID:        7,
		Kind:           entities.TransactionKindWithdrawal,
		Amount:         decimal.RequireFromString("1200.50"),
		Notes:          "rent",
		Frequency:      entities.FrequencyMonthly,
		Interval:       1,
		StartDate:      start,
		NextOccurrence: start,
		ExecutionLimit: entities.UnlimitedExecutions,
		Active:         true,
		AutoExecute:    true,
	}
}

// CreateTestLedgerEntry builds a manual ledger entry that has not been persisted
func CreateTestLedgerEntry(accountID int64, kind entities.TransactionKind, amount string, date time.Time) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		AccountID: accountID,
		PayeeID:   1,
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		EntryDate: date,
		Notes:     "manual",
	}
}
