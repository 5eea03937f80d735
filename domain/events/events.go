package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeScheduleExecuted  EventType = "schedule_executed"
	EventTypeScheduleCompleted EventType = "schedule_completed"
	EventTypeScanCompleted     EventType = "scan_completed"
	EventTypeSnapshotCaptured  EventType = "snapshot_captured"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ScheduleExecutedEvent is emitted after an occurrence was written to the ledger
type ScheduleExecutedEvent struct {
	ScheduleID     int64           `json:"schedule_id"`
	LedgerEntryID  int64           `json:"ledger_entry_id"`
	AccountID      int64           `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	OccurrenceDate time.Time       `json:"occurrence_date"`
	NextOccurrence time.Time       `json:"next_occurrence"`
	Trigger        string          `json:"trigger"`
}

func (e ScheduleExecutedEvent) Type() EventType {
	return EventTypeScheduleExecuted
}

// ScheduleCompletedEvent is emitted when an execution moved the schedule to inactive
type ScheduleCompletedEvent struct {
	ScheduleID     int64     `json:"schedule_id"`
	ExecutionsDone int       `json:"executions_done"`
	LastOccurrence time.Time `json:"last_occurrence"`
	Reason         string    `json:"reason"`
}

func (e ScheduleCompletedEvent) Type() EventType {
	return EventTypeScheduleCompleted
}

// ScanFailure describes one schedule that could not be executed during a scan
type ScanFailure struct {
	ScheduleID int64  `json:"schedule_id"`
	Error      string `json:"error"`
}

// ScanCompletedEvent summarizes one scanner tick
type ScanCompletedEvent struct {
	AsOf       time.Time     `json:"as_of"`
	Due        int           `json:"due"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Failures   []ScanFailure `json:"failures,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (e ScanCompletedEvent) Type() EventType {
	return EventTypeScanCompleted
}

// SnapshotCapturedEvent is emitted after a net-worth snapshot is stored
type SnapshotCapturedEvent struct {
	CapturedOn time.Time       `json:"captured_on"`
	NetWorth   decimal.Decimal `json:"net_worth"`
}

func (e SnapshotCapturedEvent) Type() EventType {
	return EventTypeSnapshotCaptured
}
