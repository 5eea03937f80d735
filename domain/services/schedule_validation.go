package services

import (
	"fintrack/domain"
	"fintrack/domain/entities"
)

// ValidateSchedule checks a schedule before it is created or updated.
// It returns the first *domain.ValidationError found.
func ValidateSchedule(s *entities.RecurrenceSchedule) error {
	if s == nil {
		return domain.NewValidationError("schedule", "is required")
	}

	if s.AccountID <= 0 {
		return domain.NewValidationError("account_id", "is required")
	}
	if s.PayeeID <= 0 {
		return domain.NewValidationError("payee_id", "is required")
	}
	if !s.Kind.Valid() {
		return domain.NewValidationError("kind", "unsupported transaction kind %q", s.Kind)
	}

	switch s.Kind {
	case entities.TransactionKindTransfer:
		if s.DestinationAccountID == nil {
			return domain.NewValidationError("destination_account_id", "is required for transfers")
		}
		if *s.DestinationAccountID == s.AccountID {
			return domain.NewValidationError("destination_account_id", "must differ from account_id")
		}
	default:
		if s.DestinationAccountID != nil {
			return domain.NewValidationError("destination_account_id", "only allowed for transfers")
		}
	}

	if !s.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be greater than zero")
	}

	if !s.Frequency.Valid() {
		return domain.NewValidationError("frequency", "unsupported frequency %q", s.Frequency)
	}
	if s.Interval < 1 {
		return domain.NewValidationError("interval", "must be at least 1, got %d", s.Interval)
	}

	if s.DayOfWeek != nil && (*s.DayOfWeek < 0 || *s.DayOfWeek > 6) {
		return domain.NewValidationError("day_of_week", "must be between 0 and 6")
	}
	if s.DayOfMonth != nil && (*s.DayOfMonth < 1 || *s.DayOfMonth > 31) {
		return domain.NewValidationError("day_of_month", "must be between 1 and 31")
	}

	if s.StartDate.IsZero() {
		return domain.NewValidationError("start_date", "is required")
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return domain.NewValidationError("end_date", "must not be before start_date")
	}
	if s.Active && s.NextOccurrence.Before(s.StartDate) {
		return domain.NewValidationError("next_occurrence", "must not be before start_date")
	}

	if s.ExecutionLimit != entities.UnlimitedExecutions && s.ExecutionLimit < 1 {
		return domain.NewValidationError("execution_limit", "must be %d or at least 1", entities.UnlimitedExecutions)
	}
	if s.ExecutionsDone < 0 {
		return domain.NewValidationError("executions_done", "must not be negative")
	}
	if s.HasLimit() && s.ExecutionsDone > s.ExecutionLimit {
		return domain.NewValidationError("executions_done", "exceeds execution_limit")
	}
	if s.Active && s.LimitReached() {
		return domain.NewValidationError("active", "execution limit of %d already reached", s.ExecutionLimit)
	}
	if s.Active && s.PastEnd(s.NextOccurrence) {
		return domain.NewValidationError("next_occurrence", "must not be after end_date")
	}

	return nil
}
