package services

import (
	"context"
	"fmt"

	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	CompletionReasonLimitReached = "limit_reached"
	CompletionReasonEndDate      = "end_date_passed"
)

// scheduleExecutor is the only writer of a schedule's execution state
type scheduleExecutor struct {
	scheduleRepo   interfaces.ScheduleRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
}

// NewScheduleExecutor creates a schedule executor bound to the given repositories.
// The repositories are expected to share one transaction so the ledger write and the
// schedule advance commit together.
func NewScheduleExecutor(
	scheduleRepo interfaces.ScheduleRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.ScheduleExecutor {
	return &scheduleExecutor{
		scheduleRepo:   scheduleRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// Execute materializes schedule.NextOccurrence and advances the schedule.
// On success schedule is updated in place to the persisted state.
func (e *scheduleExecutor) Execute(ctx context.Context, schedule *entities.RecurrenceSchedule, trigger entities.ExecutionTrigger) (*entities.ExecutionResult, error) {
	if schedule == nil {
		return nil, domain.NewValidationError("schedule", "is required")
	}
	// An exhausted or expired schedule is treated as inactive even if the flag was left on
	if !schedule.Active || schedule.LimitReached() || schedule.PastEnd(schedule.NextOccurrence) {
		return nil, &domain.InactiveScheduleError{ScheduleID: schedule.ID}
	}

	// Resolve the next date before touching storage so a malformed schedule has no side effects
	occurrence := schedule.NextOccurrence
	next, err := ComputeNext(occurrence, schedule.Frequency, schedule.Interval)
	if err != nil {
		return nil, err
	}

	entryID, err := e.ledgerRepo.AppendEntry(ctx, entities.NewLedgerEntryFromSchedule(schedule))
	if err != nil {
		return nil, domain.NewPersistenceError("append ledger entry", err)
	}

	updated := schedule.Clone()
	updated.ExecutionsDone++
	updated.NextOccurrence = next

	reason := ""
	switch {
	case updated.LimitReached():
		reason = CompletionReasonLimitReached
	case updated.PastEnd(next):
		reason = CompletionReasonEndDate
	}
	if reason != "" {
		updated.Active = false
	}

	if err := e.scheduleRepo.Save(ctx, updated); err != nil {
		return nil, domain.NewPersistenceError(fmt.Sprintf("save schedule %d", schedule.ID), err)
	}

	*schedule = *updated

	e.publish(events.ScheduleExecutedEvent{
		ScheduleID:     schedule.ID,
		LedgerEntryID:  entryID,
		AccountID:      schedule.AccountID,
		Amount:         schedule.SignedAmount(),
		OccurrenceDate: occurrence,
		NextOccurrence: next,
		Trigger:        string(trigger),
	})

	if reason != "" {
		e.publish(events.ScheduleCompletedEvent{
			ScheduleID:     schedule.ID,
			ExecutionsDone: schedule.ExecutionsDone,
			LastOccurrence: occurrence,
			Reason:         reason,
		})
	}

	log.WithFields(log.Fields{
		"schedule_id":     schedule.ID,
		"ledger_entry_id": entryID,
		"occurrence":      entities.FormatDate(occurrence),
		"next_occurrence": entities.FormatDate(next),
		"executions_done": schedule.ExecutionsDone,
		"active":          schedule.Active,
		"trigger":         trigger,
	}).Info("Executed recurring schedule")

	return &entities.ExecutionResult{
		ScheduleID:     schedule.ID,
		LedgerEntryID:  entryID,
		OccurrenceDate: occurrence,
		NextOccurrence: next,
		ExecutionsDone: schedule.ExecutionsDone,
		Active:         schedule.Active,
	}, nil
}

func (e *scheduleExecutor) publish(event events.Event) {
	if e.eventPublisher == nil {
		return
	}
	if err := e.eventPublisher.Publish(event); err != nil {
		log.Errorf("Failed to publish %s event: %v", event.Type(), err)
	}
}
