package application

import (
	"time"

	"fintrack/domain/interfaces"
	"fintrack/domain/services"
)

// ExecutorFactory builds a ScheduleExecutor bound to the repositories of a unit of work
type ExecutorFactory func(uow UnitOfWork) interfaces.ScheduleExecutor

// DefaultExecutorFactory wires the domain executor to the unit of work's repositories and event bus
func DefaultExecutorFactory(uow UnitOfWork) interfaces.ScheduleExecutor {
	return services.NewScheduleExecutor(uow.ScheduleRepository(), uow.LedgerRepository(), uow.EventBus())
}

// MetricsRecorder receives scheduler and execution telemetry
type MetricsRecorder interface {
	RecordScheduleExecution(trigger, outcome string)
	RecordScan(due, successful, failed int, duration time.Duration)
	RecordSnapshot(netWorth float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordScheduleExecution(string, string)  {}
func (noopMetrics) RecordScan(int, int, int, time.Duration) {}
func (noopMetrics) RecordSnapshot(float64)                  {}

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeInactive = "inactive"
)
