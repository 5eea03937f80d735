package infrastructure

import (
	"testing"

	"fintrack/domain/events"

	"github.com/stretchr/testify/assert"
)

type unknownEvent struct{}

func (unknownEvent) Type() events.EventType { return "mystery" }

func TestEventSubjectMapper(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.ScheduleExecutedEvent{}, SubjectScheduleExecuted},
		{events.ScheduleCompletedEvent{}, SubjectScheduleCompleted},
		{events.ScanCompletedEvent{}, SubjectScanCompleted},
		{events.SnapshotCapturedEvent{}, SubjectSnapshotCaptured},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			t.Parallel()
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(subject))
			assert.Contains(t, mapper.GetAllSubjects(), subject)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "unknown.mystery", mapper.MapEventToSubject(unknownEvent{}))
	})
}
