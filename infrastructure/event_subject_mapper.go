package infrastructure

import (
	"fmt"

	"fintrack/domain/events"
)

const (
	SubjectScheduleExecuted  = "recurring.schedule.executed"
	SubjectScheduleCompleted = "recurring.schedule.completed"
	SubjectScanCompleted     = "recurring.scan.completed"
	SubjectSnapshotCaptured  = "networth.snapshot.captured"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeScheduleExecuted:
		return SubjectScheduleExecuted
	case events.EventTypeScheduleCompleted:
		return SubjectScheduleCompleted
	case events.EventTypeScanCompleted:
		return SubjectScanCompleted
	case events.EventTypeSnapshotCaptured:
		return SubjectSnapshotCaptured
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectScheduleExecuted:
		return events.EventTypeScheduleExecuted
	case SubjectScheduleCompleted:
		return events.EventTypeScheduleCompleted
	case SubjectScanCompleted:
		return events.EventTypeScanCompleted
	case SubjectSnapshotCaptured:
		return events.EventTypeSnapshotCaptured
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectScheduleExecuted,
		SubjectScheduleCompleted,
		SubjectScanCompleted,
		SubjectSnapshotCaptured,
	}
}
