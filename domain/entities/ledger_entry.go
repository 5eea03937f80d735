package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a materialized transaction in the ledger
type LedgerEntry struct {
	ID                   int64           `db:"id"`
	AccountID            int64           `db:"account_id"`
	DestinationAccountID *int64          `db:"destination_account_id"`
	PayeeID              int64           `db:"payee_id"`
	CategoryID           *int64          `db:"category_id"`
	Kind                 TransactionKind `db:"kind"`
	Amount               decimal.Decimal `db:"amount"`
	EntryDate            time.Time       `db:"entry_date"`
	Notes                string          `db:"notes"`
	ScheduleID           *int64          `db:"schedule_id"`
	CreatedAt            time.Time       `db:"created_at"`
}

// NewLedgerEntryFromSchedule builds the entry for the schedule's current occurrence
func NewLedgerEntryFromSchedule(s *RecurrenceSchedule) *LedgerEntry {
	scheduleID := s.ID
	entry := &LedgerEntry{
		AccountID:  s.AccountID,
		PayeeID:    s.PayeeID,
		Kind:       s.Kind,
		Amount:     s.Amount,
		EntryDate:  s.NextOccurrence,
		Notes:      s.LedgerNote(),
		ScheduleID: &scheduleID,
	}
	if s.DestinationAccountID != nil {
		dest := *s.DestinationAccountID
		entry.DestinationAccountID = &dest
	}
	if s.CategoryID != nil {
		cat := *s.CategoryID
		entry.CategoryID = &cat
	}
	return entry
}

// ExecutionTrigger records what caused a schedule execution
type ExecutionTrigger string

const (
	TriggerScheduled ExecutionTrigger = "scheduled"
	TriggerManual    ExecutionTrigger = "manual"
)

// ExecutionResult is returned to callers of a schedule execution
type ExecutionResult struct {
	ScheduleID     int64     `json:"schedule_id"`
	LedgerEntryID  int64     `json:"ledger_entry_id"`
	OccurrenceDate time.Time `json:"occurrence_date"`
	NextOccurrence time.Time `json:"next_occurrence"`
	ExecutionsDone int       `json:"executions_done"`
	Active         bool      `json:"active"`
}
