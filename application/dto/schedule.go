package dto

import (
	"time"

	"fintrack/domain"
	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
)

// CreateScheduleRequest is the payload accepted when creating a recurring schedule
type CreateScheduleRequest struct {
	AccountID            int64           `json:"account_id"`
	DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
	PayeeID              int64           `json:"payee_id"`
	CategoryID           *int64          `json:"category_id,omitempty"`
	Kind                 string          `json:"kind"`
	Amount               decimal.Decimal `json:"amount"`
	Notes                string          `json:"notes"`
	Frequency            string          `json:"frequency"`
	Interval             int             `json:"interval"`
	DayOfWeek            *int            `json:"day_of_week,omitempty"`
	DayOfMonth           *int            `json:"day_of_month,omitempty"`
	StartDate            string          `json:"start_date"`
	NextOccurrence       *string         `json:"next_occurrence,omitempty"`
	EndDate              *string         `json:"end_date,omitempty"`
	ExecutionLimit       *int            `json:"execution_limit,omitempty"`
	AutoExecute          *bool           `json:"auto_execute,omitempty"`
}

// ToEntity converts the request into a new active schedule.
// Interval defaults to 1, the limit to unlimited and auto-execute to true.
func (r CreateScheduleRequest) ToEntity() (*entities.RecurrenceSchedule, error) {
	kind, err := entities.ParseTransactionKind(r.Kind)
	if err != nil {
		return nil, domain.NewValidationError("kind", "%v", err)
	}
	frequency, err := entities.ParseFrequency(r.Frequency)
	if err != nil {
		return nil, domain.NewValidationError("frequency", "%v", err)
	}
	start, err := parseDateField("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}

	s := &entities.RecurrenceSchedule{
		AccountID:            r.AccountID,
		DestinationAccountID: r.DestinationAccountID,
		PayeeID:              r.PayeeID,
		CategoryID:           r.CategoryID,
		Kind:                 kind,
		Amount:               r.Amount,
		Notes:                r.Notes,
		Frequency:            frequency,
		Interval:             r.Interval,
		DayOfWeek:            r.DayOfWeek,
		DayOfMonth:           r.DayOfMonth,
		StartDate:            start,
		NextOccurrence:       start,
		ExecutionLimit:       entities.UnlimitedExecutions,
		Active:               true,
		AutoExecute:          true,
	}
	if s.Interval == 0 {
		s.Interval = 1
	}
	if r.NextOccurrence != nil {
		if s.NextOccurrence, err = parseDateField("next_occurrence", *r.NextOccurrence); err != nil {
			return nil, err
		}
	}
	if r.EndDate != nil {
		end, err := parseDateField("end_date", *r.EndDate)
		if err != nil {
			return nil, err
		}
		s.EndDate = &end
	}
	if r.ExecutionLimit != nil {
		s.ExecutionLimit = *r.ExecutionLimit
	}
	if r.AutoExecute != nil {
		s.AutoExecute = *r.AutoExecute
	}
	return s, nil
}

// UpdateScheduleRequest is a partial update; nil fields are left unchanged.
// Execution state (executions done) can not be changed through it.
type UpdateScheduleRequest struct {
	AccountID            *int64           `json:"account_id,omitempty"`
	DestinationAccountID *int64           `json:"destination_account_id,omitempty"`
	PayeeID              *int64           `json:"payee_id,omitempty"`
	CategoryID           *int64           `json:"category_id,omitempty"`
	Kind                 *string          `json:"kind,omitempty"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
	Frequency            *string          `json:"frequency,omitempty"`
	Interval             *int             `json:"interval,omitempty"`
	DayOfWeek            *int             `json:"day_of_week,omitempty"`
	DayOfMonth           *int             `json:"day_of_month,omitempty"`
	StartDate            *string          `json:"start_date,omitempty"`
	NextOccurrence       *string          `json:"next_occurrence,omitempty"`
	EndDate              *string          `json:"end_date,omitempty"`
	ClearEndDate         bool             `json:"clear_end_date,omitempty"`
	ExecutionLimit       *int             `json:"execution_limit,omitempty"`
	Active               *bool            `json:"active,omitempty"`
	AutoExecute          *bool            `json:"auto_execute,omitempty"`
}

// Apply copies the set fields onto s
func (r UpdateScheduleRequest) Apply(s *entities.RecurrenceSchedule) error {
	if r.AccountID != nil {
		s.AccountID = *r.AccountID
	}
	if r.DestinationAccountID != nil {
		v := *r.DestinationAccountID
		s.DestinationAccountID = &v
	}
	if r.PayeeID != nil {
		s.PayeeID = *r.PayeeID
	}
	if r.CategoryID != nil {
		v := *r.CategoryID
		s.CategoryID = &v
	}
	if r.Kind != nil {
		kind, err := entities.ParseTransactionKind(*r.Kind)
		if err != nil {
			return domain.NewValidationError("kind", "%v", err)
		}
		s.Kind = kind
		if kind != entities.TransactionKindTransfer && r.DestinationAccountID == nil {
			s.DestinationAccountID = nil
		}
	}
	if r.Amount != nil {
		s.Amount = *r.Amount
	}
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	if r.Frequency != nil {
		frequency, err := entities.ParseFrequency(*r.Frequency)
		if err != nil {
			return domain.NewValidationError("frequency", "%v", err)
		}
		s.Frequency = frequency
	}
	if r.Interval != nil {
		s.Interval = *r.Interval
	}
	if r.DayOfWeek != nil {
		v := *r.DayOfWeek
		s.DayOfWeek = &v
	}
	if r.DayOfMonth != nil {
		v := *r.DayOfMonth
		s.DayOfMonth = &v
	}
	if r.StartDate != nil {
		start, err := parseDateField("start_date", *r.StartDate)
		if err != nil {
			return err
		}
		s.StartDate = start
	}
	if r.NextOccurrence != nil {
		next, err := parseDateField("next_occurrence", *r.NextOccurrence)
		if err != nil {
			return err
		}
		s.NextOccurrence = next
	}
	if r.ClearEndDate {
		s.EndDate = nil
	} else if r.EndDate != nil {
		end, err := parseDateField("end_date", *r.EndDate)
		if err != nil {
			return err
		}
		s.EndDate = &end
	}
	if r.ExecutionLimit != nil {
		s.ExecutionLimit = *r.ExecutionLimit
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
	if r.AutoExecute != nil {
		s.AutoExecute = *r.AutoExecute
	}
	return nil
}

// ScheduleResponse is the API representation of a schedule
type ScheduleResponse struct {
	ID                   int64           `json:"id"`
	AccountID            int64           `json:"account_id"`
	DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
	PayeeID              int64           `json:"payee_id"`
	CategoryID           *int64          `json:"category_id,omitempty"`
	Kind                 string          `json:"kind"`
	Amount               decimal.Decimal `json:"amount"`
	Notes                string          `json:"notes"`
	Frequency            string          `json:"frequency"`
	Interval             int             `json:"interval"`
	DayOfWeek            *int            `json:"day_of_week,omitempty"`
	DayOfMonth           *int            `json:"day_of_month,omitempty"`
	StartDate            string          `json:"start_date"`
	NextOccurrence       string          `json:"next_occurrence"`
	EndDate              *string         `json:"end_date,omitempty"`
	ExecutionLimit       int             `json:"execution_limit"`
	ExecutionsDone       int             `json:"executions_done"`
	Active               bool            `json:"active"`
	AutoExecute          bool            `json:"auto_execute"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewScheduleResponse converts a schedule entity for the API
func NewScheduleResponse(s *entities.RecurrenceSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:                   s.ID,
		AccountID:            s.AccountID,
		DestinationAccountID: s.DestinationAccountID,
		PayeeID:              s.PayeeID,
		CategoryID:           s.CategoryID,
		Kind:                 string(s.Kind),
		Amount:               s.Amount,
		Notes:                s.Notes,
		Frequency:            string(s.Frequency),
		Interval:             s.Interval,
		DayOfWeek:            s.DayOfWeek,
		DayOfMonth:           s.DayOfMonth,
		StartDate:            entities.FormatDate(s.StartDate),
		NextOccurrence:       entities.FormatDate(s.NextOccurrence),
		ExecutionLimit:       s.ExecutionLimit,
		ExecutionsDone:       s.ExecutionsDone,
		Active:               s.Active,
		AutoExecute:          s.AutoExecute,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if s.EndDate != nil {
		end := entities.FormatDate(*s.EndDate)
		resp.EndDate = &end
	}
	return resp
}

// ExecutionResponse is returned by the execute-now endpoint
type ExecutionResponse struct {
	ScheduleID     int64  `json:"schedule_id"`
	LedgerEntryID  int64  `json:"ledger_entry_id"`
	OccurrenceDate string `json:"occurrence_date"`
	NextOccurrence string `json:"next_occurrence"`
	ExecutionsDone int    `json:"executions_done"`
	Active         bool   `json:"active"`
}

// NewExecutionResponse converts an execution result for the API
func NewExecutionResponse(r *entities.ExecutionResult) ExecutionResponse {
	return ExecutionResponse{
		ScheduleID:     r.ScheduleID,
		LedgerEntryID:  r.LedgerEntryID,
		OccurrenceDate: entities.FormatDate(r.OccurrenceDate),
		NextOccurrence: entities.FormatDate(r.NextOccurrence),
		ExecutionsDone: r.ExecutionsDone,
		Active:         r.Active,
	}
}

func parseDateField(field, value string) (time.Time, error) {
	d, err := entities.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "expected YYYY-MM-DD, got %q", value)
	}
	return d, nil
}
