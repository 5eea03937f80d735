package interfaces

import (
	"context"
	"time"

	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
)

// ScheduleFilter narrows schedule listings
type ScheduleFilter struct {
	Active    *bool
	AccountID *int64
}

// ScheduleRepository defines the interface for recurrence schedule storage
type ScheduleRepository interface {
	// Create inserts a new schedule and fills in its ID and timestamps
	Create(ctx context.Context, schedule *entities.RecurrenceSchedule) error

	// GetByID retrieves a schedule, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error)

	// GetForUpdate retrieves a schedule and locks its row for the current transaction
	GetForUpdate(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error)

	// Save persists every mutable field of an existing schedule
	Save(ctx context.Context, schedule *entities.RecurrenceSchedule) error

	// Delete removes a schedule, returning false when it did not exist
	Delete(ctx context.Context, id int64) (bool, error)

	// List returns schedules matching the filter ordered by next occurrence
	List(ctx context.Context, filter ScheduleFilter) ([]*entities.RecurrenceSchedule, error)

	// ListDue returns active auto-executing schedules due on or before asOf
	ListDue(ctx context.Context, asOf time.Time) ([]*entities.RecurrenceSchedule, error)

	// ListActiveForAccount returns active schedules touching an account as source or destination
	ListActiveForAccount(ctx context.Context, accountID int64) ([]*entities.RecurrenceSchedule, error)
}

// LedgerRepository defines the interface for the ledger store
type LedgerRepository interface {
	// AppendEntry writes a new ledger entry and returns its ID
	AppendEntry(ctx context.Context, entry *entities.LedgerEntry) (int64, error)

	// ListBySchedule returns the entries materialized from a schedule
	ListBySchedule(ctx context.Context, scheduleID int64) ([]*entities.LedgerEntry, error)
}

// AccountRepository defines read access to accounts and their balances
type AccountRepository interface {
	// GetByID retrieves an account, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// GetBalance returns opening balance plus all ledger movements up to and including asOf
	GetBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error)

	// ListBalances returns the balance of every account as of a date
	ListBalances(ctx context.Context, asOf time.Time) ([]*entities.AccountBalance, error)
}

// SnapshotRepository defines storage for net-worth snapshots
type SnapshotRepository interface {
	// Upsert stores the snapshot for its capture date, replacing an earlier one for the same day
	Upsert(ctx context.Context, snapshot *entities.NetWorthSnapshot) error

	// ListRecent returns the latest snapshots in chronological order
	ListRecent(ctx context.Context, limit int) ([]*entities.NetWorthSnapshot, error)
}
