package interfaces

import (
	"context"

	"fintrack/domain/entities"
	"fintrack/domain/events"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// Notifier delivers operator-facing messages such as scan summaries
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// ScheduleExecutor materializes the current occurrence of a schedule into the ledger
type ScheduleExecutor interface {
	// Execute writes one ledger entry for schedule.NextOccurrence and advances the schedule.
	// The caller owns the surrounding transaction.
	Execute(ctx context.Context, schedule *entities.RecurrenceSchedule, trigger entities.ExecutionTrigger) (*entities.ExecutionResult, error)
}
