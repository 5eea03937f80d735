package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the calendar unit a schedule repeats on
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
)

// Frequencies lists every supported frequency in display order
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
	FrequencyYearly,
}

// Valid reports whether f is one of the supported frequencies
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency accepts the canonical names plus the "Bi-weekly"/"Daily"
// spellings used by older clients.
func ParseFrequency(s string) (Frequency, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	f := Frequency(normalized)
	if !f.Valid() {
		return "", fmt.Errorf("unsupported frequency %q", s)
	}
	return f, nil
}

// TransactionKind is the ledger direction of a schedule
type TransactionKind string

const (
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindTransfer   TransactionKind = "transfer"
)

// Valid reports whether k is a known transaction kind
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindWithdrawal, TransactionKindDeposit, TransactionKindTransfer:
		return true
	}
	return false
}

// ParseTransactionKind normalizes a transaction kind
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unsupported transaction kind %q", s)
	}
	return k, nil
}

// UnlimitedExecutions marks a schedule without an execution-count limit
const UnlimitedExecutions = -1

// RecurringNotePrefix tags ledger entries created from a schedule
const RecurringNotePrefix = "[Recurring]"

// RecurrenceSchedule is a template for a transaction that repeats on a calendar cadence
type RecurrenceSchedule struct {
	ID int64 `db:"id"`

	// Financial fields
	AccountID            int64           `db:"account_id"`
	DestinationAccountID *int64          `db:"destination_account_id"`
	PayeeID              int64           `db:"payee_id"`
	CategoryID           *int64          `db:"category_id"`
	Kind                 TransactionKind `db:"kind"`
	Amount               decimal.Decimal `db:"amount"`
	Notes                string          `db:"notes"`

	// Recurrence fields
	Frequency      Frequency  `db:"frequency"`
	Interval       int        `db:"interval_count"`
	DayOfWeek      *int       `db:"day_of_week"`
	DayOfMonth     *int       `db:"day_of_month"`
	StartDate      time.Time  `db:"start_date"`
	NextOccurrence time.Time  `db:"next_occurrence"`
	EndDate        *time.Time `db:"end_date"`
	ExecutionLimit int        `db:"execution_limit"`
	ExecutionsDone int        `db:"executions_done"`
	Active         bool       `db:"active"`
	AutoExecute    bool       `db:"auto_execute"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasLimit reports whether the schedule stops after a fixed number of executions
func (s *RecurrenceSchedule) HasLimit() bool {
	return s.ExecutionLimit != UnlimitedExecutions
}

// LimitReached reports whether the execution counter has hit the limit
func (s *RecurrenceSchedule) LimitReached() bool {
	return s.HasLimit() && s.ExecutionsDone >= s.ExecutionLimit
}

// PastEnd reports whether date falls after the schedule's end date
func (s *RecurrenceSchedule) PastEnd(date time.Time) bool {
	return s.EndDate != nil && date.After(*s.EndDate)
}

// IsDue reports whether the schedule should be picked up by the daily scan on asOf
func (s *RecurrenceSchedule) IsDue(asOf time.Time) bool {
	return s.Active && s.AutoExecute && !s.NextOccurrence.After(DateOf(asOf))
}

// SignedAmount returns the balance change on the source account
func (s *RecurrenceSchedule) SignedAmount() decimal.Decimal {
	if s.Kind == TransactionKindDeposit {
		return s.Amount.Abs()
	}
	return s.Amount.Abs().Neg()
}

// SignedAmountFor returns the balance change this schedule causes on accountID.
// Transfers count negatively on the source account and positively on the destination.
func (s *RecurrenceSchedule) SignedAmountFor(accountID int64) decimal.Decimal {
	if s.AccountID == accountID {
		return s.SignedAmount()
	}
	if s.Kind == TransactionKindTransfer && s.DestinationAccountID != nil && *s.DestinationAccountID == accountID {
		return s.Amount.Abs()
	}
	return decimal.Zero
}

// LedgerNote builds the note attached to materialized entries
func (s *RecurrenceSchedule) LedgerNote() string {
	notes := strings.TrimSpace(s.Notes)
	if notes == "" {
		return RecurringNotePrefix
	}
	return RecurringNotePrefix + " " + notes
}

// Clone returns a deep copy so callers can mutate without touching the original
func (s *RecurrenceSchedule) Clone() *RecurrenceSchedule {
	c := *s
	if s.DestinationAccountID != nil {
		v := *s.DestinationAccountID
		c.DestinationAccountID = &v
	}
	if s.CategoryID != nil {
		v := *s.CategoryID
		c.CategoryID = &v
	}
	if s.DayOfWeek != nil {
		v := *s.DayOfWeek
		c.DayOfWeek = &v
	}
	if s.DayOfMonth != nil {
		v := *s.DayOfMonth
		c.DayOfMonth = &v
	}
	if s.EndDate != nil {
		v := *s.EndDate
		c.EndDate = &v
	}
	return &c
}
