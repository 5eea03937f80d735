package application

import (
	"context"
	"fmt"

	"fintrack/application/dto"
	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"
	"fintrack/domain/services"

	log "github.com/sirupsen/logrus"
)

const scheduleResource = "recurring schedule"

// ScheduleService handles schedule CRUD and manual execution
type ScheduleService struct {
	uowFactory  UnitOfWorkFactory
	newExecutor ExecutorFactory
	metrics     MetricsRecorder
}

// NewScheduleService creates a new schedule service
func NewScheduleService(uowFactory UnitOfWorkFactory, newExecutor ExecutorFactory, metrics MetricsRecorder) *ScheduleService {
	if newExecutor == nil {
		newExecutor = DefaultExecutorFactory
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ScheduleService{
		uowFactory:  uowFactory,
		newExecutor: newExecutor,
		metrics:     metrics,
	}
}

// Create validates and stores a new schedule
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*entities.RecurrenceSchedule, error) {
	schedule, err := req.ToEntity()
	if err != nil {
		return nil, err
	}
	if err := services.ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.ScheduleRepository().Create(ctx, schedule); err != nil {
		return nil, domain.NewPersistenceError("create schedule", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, domain.NewPersistenceError("commit schedule", err)
	}

	log.WithFields(log.Fields{
		"schedule_id":     schedule.ID,
		"account_id":      schedule.AccountID,
		"frequency":       schedule.Frequency,
		"next_occurrence": entities.FormatDate(schedule.NextOccurrence),
	}).Info("Created recurring schedule")

	return schedule, nil
}

// Get returns a schedule or a NotFoundError
func (s *ScheduleService) Get(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	schedule, err := uow.ScheduleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("get schedule", err)
	}
	if schedule == nil {
		return nil, &domain.NotFoundError{Resource: scheduleResource, ID: id}
	}
	return schedule, nil
}

// List returns schedules matching the filter
func (s *ScheduleService) List(ctx context.Context, filter interfaces.ScheduleFilter) ([]*entities.RecurrenceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	schedules, err := uow.ScheduleRepository().List(ctx, filter)
	if err != nil {
		return nil, domain.NewPersistenceError("list schedules", err)
	}
	return schedules, nil
}

// Update applies a partial update and re-validates the result
func (s *ScheduleService) Update(ctx context.Context, id int64, req dto.UpdateScheduleRequest) (*entities.RecurrenceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	schedule, err := uow.ScheduleRepository().GetForUpdate(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("get schedule", err)
	}
	if schedule == nil {
		return nil, &domain.NotFoundError{Resource: scheduleResource, ID: id}
	}

	if err := req.Apply(schedule); err != nil {
		return nil, err
	}
	if err := services.ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	if err := uow.ScheduleRepository().Save(ctx, schedule); err != nil {
		return nil, domain.NewPersistenceError("save schedule", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, domain.NewPersistenceError("commit schedule", err)
	}

	log.WithField("schedule_id", id).Info("Updated recurring schedule")
	return schedule, nil
}

// Delete removes a schedule
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	deleted, err := uow.ScheduleRepository().Delete(ctx, id)
	if err != nil {
		return domain.NewPersistenceError("delete schedule", err)
	}
	if !deleted {
		return &domain.NotFoundError{Resource: scheduleResource, ID: id}
	}
	if err := uow.Commit(); err != nil {
		return domain.NewPersistenceError("commit schedule delete", err)
	}

	log.WithField("schedule_id", id).Info("Deleted recurring schedule")
	return nil
}

// ExecuteNow materializes the schedule's current occurrence regardless of its due date or auto-execute flag
func (s *ScheduleService) ExecuteNow(ctx context.Context, id int64) (*entities.ExecutionResult, error) {
	result, err := s.executeNow(ctx, id)
	switch {
	case err == nil:
		s.metrics.RecordScheduleExecution(string(entities.TriggerManual), OutcomeSuccess)
	case domain.IsInactive(err):
		s.metrics.RecordScheduleExecution(string(entities.TriggerManual), OutcomeInactive)
	default:
		s.metrics.RecordScheduleExecution(string(entities.TriggerManual), OutcomeFailure)
	}
	return result, err
}

func (s *ScheduleService) executeNow(ctx context.Context, id int64) (*entities.ExecutionResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	schedule, err := uow.ScheduleRepository().GetForUpdate(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("lock schedule", err)
	}
	if schedule == nil {
		return nil, &domain.NotFoundError{Resource: scheduleResource, ID: id}
	}

	result, err := s.newExecutor(uow).Execute(ctx, schedule, entities.TriggerManual)
	if err != nil {
		return nil, fmt.Errorf("failed to execute schedule %d: %w", id, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, domain.NewPersistenceError("commit schedule execution", err)
	}
	return result, nil
}
