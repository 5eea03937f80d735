package repository

import (
	"context"
	"testing"

	"fintrack/domain/entities"
	"fintrack/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_AppendEntry(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	schedules := NewScheduleRepository(testDB.DB)
	ledger := NewLedgerRepository(testDB.DB)
	checking := testutil.InsertAccount(t, testDB.DB, "Checking", entities.AccountCategoryLiquid, "0")

	schedule := testutil.CreateTestSchedule(checking, entities.NewDate(2024, 1, 15))
	require.NoError(t, schedules.Create(ctx, schedule))

	t.Run("entry from schedule", func(t *testing.T) {
		id, err := ledger.AppendEntry(ctx, entities.NewLedgerEntryFromSchedule(schedule))
		require.NoError(t, err)
		assert.NotZero(t, id)

		entries, err := ledger.ListBySchedule(ctx, schedule.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, id, entries[0].ID)
		assert.Equal(t, "[Recurring] rent", entries[0].Notes)
		assert.Equal(t, entities.NewDate(2024, 1, 15), entries[0].EntryDate)
		assert.True(t, decimal.RequireFromString("1200.50").Equal(entries[0].Amount))
		require.NotNil(t, entries[0].ScheduleID)
		assert.Equal(t, schedule.ID, *entries[0].ScheduleID)
	})

	t.Run("duplicate occurrence rejected", func(t *testing.T) {
		_, err := ledger.AppendEntry(ctx, entities.NewLedgerEntryFromSchedule(schedule))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger_entries_schedule_date_unique")
	})
}

func TestAccountRepository_Balances(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	ledger := NewLedgerRepository(testDB.DB)
	accounts := NewAccountRepository(testDB.DB)

	checking := testutil.InsertAccount(t, testDB.DB, "Checking", entities.AccountCategoryLiquid, "1000")
	savings := testutil.InsertAccount(t, testDB.DB, "Savings", entities.AccountCategoryInvestment, "500.25")

	jan := entities.NewDate(2024, 1, 10)
	feb := entities.NewDate(2024, 2, 10)

	appendEntry := func(e *entities.LedgerEntry) {
		_, err := ledger.AppendEntry(ctx, e)
		require.NoError(t, err)
	}
	appendEntry(testutil.CreateTestLedgerEntry(checking, entities.TransactionKindDeposit, "250", jan))
	appendEntry(testutil.CreateTestLedgerEntry(checking, entities.TransactionKindWithdrawal, "100.10", jan))
	transfer := testutil.CreateTestLedgerEntry(checking, entities.TransactionKindTransfer, "200", feb)
	transfer.DestinationAccountID = &savings
	appendEntry(transfer)

	t.Run("get by id", func(t *testing.T) {
		account, err := accounts.GetByID(ctx, savings)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "Savings", account.Name)
		assert.Equal(t, entities.AccountCategoryInvestment, account.Category)
		assert.True(t, decimal.RequireFromString("500.25").Equal(account.OpeningBalance))

		missing, err := accounts.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	tests := []struct {
		name      string
		accountID int64
		asOf      string
		expected  string
	}{
		{"before any entry", checking, "2024-01-09", "1000"},
		{"entries on asOf included", checking, "2024-01-10", "1149.9"},
		{"outgoing transfer", checking, "2024-02-10", "949.9"},
		{"incoming transfer", savings, "2024-02-10", "700.25"},
		{"incoming transfer not yet", savings, "2024-02-09", "500.25"},
		{"unknown account", 999999, "2024-02-10", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asOf, err := entities.ParseDate(tt.asOf)
			require.NoError(t, err)

			balance, err := accounts.GetBalance(ctx, tt.accountID, asOf)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(balance), "got %s", balance)
		})
	}

	t.Run("list balances", func(t *testing.T) {
		balances, err := accounts.ListBalances(ctx, feb)
		require.NoError(t, err)
		require.Len(t, balances, 2)
		assert.Equal(t, checking, balances[0].AccountID)
		assert.True(t, decimal.RequireFromString("949.9").Equal(balances[0].Balance))
		assert.Equal(t, entities.AccountCategoryInvestment, balances[1].Category)
		assert.True(t, decimal.RequireFromString("700.25").Equal(balances[1].Balance))
	})
}
