package testhelpers

import (
	"time"

	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
)

// NewTestSchedule returns an active, auto-executing monthly withdrawal that can be tweaked with opts
func NewTestSchedule(id int64, opts ...func(*entities.RecurrenceSchedule)) *entities.RecurrenceSchedule {
	start := entities.NewDate(2024, time.January, 15)
	s := &entities.RecurrenceSchedule{
		ID:             id,
		AccountID:      1,
		PayeeID:        1,
		Kind:           entities.TransactionKindWithdrawal,
		Amount:         decimal.NewFromInt(100),
		Notes:          "rent",
		Frequency:      entities.FrequencyMonthly,
		Interval:       1,
		StartDate:      start,
		NextOccurrence: start,
		ExecutionLimit: entities.UnlimitedExecutions,
		Active:         true,
		AutoExecute:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DatePtr returns a pointer to a calendar date
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := entities.NewDate(year, month, day)
	return &d
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}
