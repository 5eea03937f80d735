package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ErrScanInProgress is returned when a tick starts while the previous one is still running
var ErrScanInProgress = errors.New("schedule scan already in progress")

// ScanSummary reports the outcome of one scanner tick
type ScanSummary struct {
	AsOf       time.Time
	Due        int
	Successful int
	Skipped    int
	Failed     int
	Failures   []events.ScanFailure
	Duration   time.Duration
}

// DueScheduleScanner executes every due auto-executing schedule once per tick
type DueScheduleScanner struct {
	uowFactory  UnitOfWorkFactory
	newExecutor ExecutorFactory
	publisher   interfaces.EventPublisher
	notifier    interfaces.Notifier
	metrics     MetricsRecorder
	clock       func() time.Time

	running sync.Mutex
}

// ScannerOption customizes a DueScheduleScanner
type ScannerOption func(*DueScheduleScanner)

// WithScanPublisher publishes a ScanCompletedEvent after each tick
func WithScanPublisher(publisher interfaces.EventPublisher) ScannerOption {
	return func(s *DueScheduleScanner) { s.publisher = publisher }
}

// WithScanNotifier sends a tick summary whenever schedules were due
func WithScanNotifier(notifier interfaces.Notifier) ScannerOption {
	return func(s *DueScheduleScanner) { s.notifier = notifier }
}

// WithScanMetrics records execution and tick metrics
func WithScanMetrics(metrics MetricsRecorder) ScannerOption {
	return func(s *DueScheduleScanner) { s.metrics = metrics }
}

// WithScanClock overrides the clock used by Run
func WithScanClock(clock func() time.Time) ScannerOption {
	return func(s *DueScheduleScanner) { s.clock = clock }
}

// NewDueScheduleScanner creates a new scanner
func NewDueScheduleScanner(uowFactory UnitOfWorkFactory, newExecutor ExecutorFactory, opts ...ScannerOption) *DueScheduleScanner {
	if newExecutor == nil {
		newExecutor = DefaultExecutorFactory
	}
	s := &DueScheduleScanner{
		uowFactory:  uowFactory,
		newExecutor: newExecutor,
		metrics:     noopMetrics{},
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one tick for the current date. It is the entry point used by the scheduler.
func (s *DueScheduleScanner) Run(ctx context.Context) {
	if _, err := s.ScanOnce(ctx, s.clock()); err != nil {
		log.Errorf("Error scanning recurring schedules: %v", err)
	}
}

// ScanOnce executes every schedule due on or before asOf.
// Each schedule runs in its own transaction; a failure is logged and the scan moves on.
func (s *DueScheduleScanner) ScanOnce(ctx context.Context, asOf time.Time) (*ScanSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.running.Unlock()

	started := time.Now()
	asOf = entities.DateOf(asOf)

	due, err := s.listDue(ctx, asOf)
	if err != nil {
		return nil, err
	}

	summary := &ScanSummary{AsOf: asOf, Due: len(due)}
	if len(due) == 0 {
		log.Infof("No recurring schedules due as of %s", entities.FormatDate(asOf))
	}

	for _, schedule := range due {
		if ctx.Err() != nil {
			log.Warn("Schedule scan interrupted, remaining schedules deferred to next tick")
			break
		}

		executed, err := s.processSchedule(ctx, schedule.ID, asOf)
		switch {
		case err != nil:
			log.WithFields(log.Fields{
				"schedule_id": schedule.ID,
				"account_id":  schedule.AccountID,
			}).Errorf("Error executing recurring schedule: %v", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, events.ScanFailure{ScheduleID: schedule.ID, Error: err.Error()})
			s.metrics.RecordScheduleExecution(string(entities.TriggerScheduled), OutcomeFailure)
		case executed:
			summary.Successful++
			s.metrics.RecordScheduleExecution(string(entities.TriggerScheduled), OutcomeSuccess)
		default:
			summary.Skipped++
		}
	}

	summary.Duration = time.Since(started)

	log.WithFields(log.Fields{
		"as_of":           entities.FormatDate(asOf),
		"total_due":       summary.Due,
		"successful":      summary.Successful,
		"skipped":         summary.Skipped,
		"failed":          summary.Failed,
		"processing_time": summary.Duration.String(),
	}).Info("Completed recurring schedule scan")

	s.metrics.RecordScan(summary.Due, summary.Successful, summary.Failed, summary.Duration)
	s.report(ctx, summary)

	return summary, nil
}

// listDue reads the due schedules in a short read-only transaction
func (s *DueScheduleScanner) listDue(ctx context.Context, asOf time.Time) ([]*entities.RecurrenceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	due, err := uow.ScheduleRepository().ListDue(ctx, asOf)
	if err != nil {
		return nil, domain.NewPersistenceError("list due schedules", err)
	}
	return due, nil
}

// processSchedule locks and executes one schedule, reporting false when it no longer needs executing
func (s *DueScheduleScanner) processSchedule(ctx context.Context, scheduleID int64, asOf time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedule, err := uow.ScheduleRepository().GetForUpdate(ctx, scheduleID)
	if err != nil {
		return false, domain.NewPersistenceError(fmt.Sprintf("lock schedule %d", scheduleID), err)
	}

	// Deleted, deactivated or executed by someone else since the listing
	if schedule == nil || !schedule.IsDue(asOf) {
		log.Debugf("Schedule %d no longer due, skipping", scheduleID)
		return false, nil
	}

	executor := s.newExecutor(uow)
	if _, err := executor.Execute(ctx, schedule, entities.TriggerScheduled); err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, domain.NewPersistenceError("commit schedule execution", err)
	}

	return true, nil
}

func (s *DueScheduleScanner) report(ctx context.Context, summary *ScanSummary) {
	if s.publisher != nil {
		event := events.ScanCompletedEvent{
			AsOf:       summary.AsOf,
			Due:        summary.Due,
			Successful: summary.Successful,
			Failed:     summary.Failed,
			Failures:   summary.Failures,
			Duration:   summary.Duration,
		}
		if err := s.publisher.Publish(event); err != nil {
			log.Errorf("Failed to publish scan summary: %v", err)
		}
	}

	if s.notifier == nil || summary.Due == 0 {
		return
	}

	if err := s.notifier.Notify(ctx, "Recurring transactions", formatScanSummary(summary)); err != nil {
		log.Errorf("Failed to send scan notification: %v", err)
	}
}

func formatScanSummary(summary *ScanSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan for %s: %d due, %d executed, %d skipped, %d failed",
		entities.FormatDate(summary.AsOf), summary.Due, summary.Successful, summary.Skipped, summary.Failed)
	for _, f := range summary.Failures {
		fmt.Fprintf(&b, "\nschedule %d: %s", f.ScheduleID, f.Error)
	}
	return b.String()
}
