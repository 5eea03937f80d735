package infrastructure

import (
	"context"
	"fmt"

	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/interfaces"
	"fintrack/domain/services"
)

// RegisterCompletionNotifier sends a notification whenever a schedule deactivates after an execution
func RegisterCompletionNotifier(publisher *NATSEventPublisher, notifier interfaces.Notifier) {
	publisher.RegisterLocalHandler(events.EventTypeScheduleCompleted, func(ctx context.Context, event events.Event) error {
		completed, ok := event.(events.ScheduleCompletedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T for %s", event, events.EventTypeScheduleCompleted)
		}
		return notifier.Notify(ctx, "Recurring schedule finished", formatCompletion(completed))
	})
}

func formatCompletion(e events.ScheduleCompletedEvent) string {
	var why string
	switch e.Reason {
	case services.CompletionReasonLimitReached:
		why = "its execution limit was reached"
	case services.CompletionReasonEndDate:
		why = "its end date has passed"
	default:
		why = e.Reason
	}
	return fmt.Sprintf("Schedule #%d stopped after %d executions (last on %s) because %s.",
		e.ScheduleID, e.ExecutionsDone, entities.FormatDate(e.LastOccurrence), why)
}
