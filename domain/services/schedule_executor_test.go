package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupExecutorMocks() (*testhelpers.MockScheduleRepository, *testhelpers.MockLedgerRepository, *testhelpers.MockEventPublisher) {
	return new(testhelpers.MockScheduleRepository),
		new(testhelpers.MockLedgerRepository),
		new(testhelpers.MockEventPublisher)
}

func TestScheduleExecutor_Execute_AdvancesSchedule(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	schedule := testhelpers.NewTestSchedule(7, func(s *entities.RecurrenceSchedule) {
		s.NextOccurrence = entities.NewDate(2024, time.January, 31)
		s.Notes = "rent"
	})

	ledgerRepo.On("AppendEntry", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.AccountID == 1 &&
			e.Kind == entities.TransactionKindWithdrawal &&
			e.Amount.Equal(decimal.NewFromInt(100)) &&
			e.EntryDate.Equal(entities.NewDate(2024, time.January, 31)) &&
			e.Notes == "[Recurring] rent" &&
			e.ScheduleID != nil && *e.ScheduleID == 7
	})).Return(int64(501), nil)

	scheduleRepo.On("Save", ctx, mock.MatchedBy(func(s *entities.RecurrenceSchedule) bool {
		return s.ID == 7 &&
			s.ExecutionsDone == 1 &&
			s.NextOccurrence.Equal(entities.NewDate(2024, time.February, 29)) &&
			s.Active
	})).Return(nil)

	publisher.On("Publish", mock.MatchedBy(func(e events.ScheduleExecutedEvent) bool {
		return e.ScheduleID == 7 && e.LedgerEntryID == 501 && e.Amount.Equal(decimal.NewFromInt(-100)) && e.Trigger == "scheduled"
	})).Return(nil)

	result, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, int64(501), result.LedgerEntryID)
	assert.Equal(t, entities.NewDate(2024, time.January, 31), result.OccurrenceDate)
	assert.Equal(t, entities.NewDate(2024, time.February, 29), result.NextOccurrence)
	assert.Equal(t, 1, result.ExecutionsDone)
	assert.True(t, result.Active)

	// The caller's copy reflects the persisted state
	assert.Equal(t, 1, schedule.ExecutionsDone)
	assert.Equal(t, entities.NewDate(2024, time.February, 29), schedule.NextOccurrence)

	scheduleRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestScheduleExecutor_Execute_LimitReached(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	schedule := testhelpers.NewTestSchedule(3, func(s *entities.RecurrenceSchedule) {
		s.ExecutionLimit = 3
		s.ExecutionsDone = 2
	})

	ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(10), nil)
	scheduleRepo.On("Save", ctx, mock.MatchedBy(func(s *entities.RecurrenceSchedule) bool {
		return s.ExecutionsDone == 3 && !s.Active
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.ScheduleExecutedEvent")).Return(nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.ScheduleCompletedEvent) bool {
		return e.ScheduleID == 3 && e.Reason == CompletionReasonLimitReached && e.ExecutionsDone == 3
	})).Return(nil)

	result, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExecutionsDone)
	assert.False(t, result.Active)
	assert.Equal(t, 3, schedule.ExecutionsDone)
	assert.False(t, schedule.Active)

	scheduleRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestScheduleExecutor_Execute_EndDatePassed(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	schedule := testhelpers.NewTestSchedule(4, func(s *entities.RecurrenceSchedule) {
		s.Frequency = entities.FrequencyWeekly
		s.NextOccurrence = entities.NewDate(2024, time.March, 25)
		s.EndDate = testhelpers.DatePtr(2024, time.March, 31)
	})

	ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(11), nil)
	scheduleRepo.On("Save", ctx, mock.MatchedBy(func(s *entities.RecurrenceSchedule) bool {
		return !s.Active && s.NextOccurrence.Equal(entities.NewDate(2024, time.April, 1))
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.ScheduleExecutedEvent")).Return(nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.ScheduleCompletedEvent) bool {
		return e.Reason == CompletionReasonEndDate
	})).Return(nil)

	result, err := executor.Execute(ctx, schedule, entities.TriggerManual)
	require.NoError(t, err)
	assert.False(t, result.Active)

	scheduleRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestScheduleExecutor_Execute_EndDateOnNextOccurrenceStaysActive(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	schedule := testhelpers.NewTestSchedule(5, func(s *entities.RecurrenceSchedule) {
		s.Frequency = entities.FrequencyDaily
		s.NextOccurrence = entities.NewDate(2024, time.March, 30)
		s.EndDate = testhelpers.DatePtr(2024, time.March, 31)
	})

	ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(12), nil)
	scheduleRepo.On("Save", ctx, mock.Anything).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.ScheduleExecutedEvent")).Return(nil)

	result, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, entities.NewDate(2024, time.March, 31), result.NextOccurrence)

	publisher.AssertNotCalled(t, "Publish", mock.AnythingOfType("events.ScheduleCompletedEvent"))
}

func TestScheduleExecutor_Execute_Inactive(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)

	schedule := testhelpers.NewTestSchedule(9, func(s *entities.RecurrenceSchedule) {
		s.Active = false
	})

	result, err := executor.Execute(context.Background(), schedule, entities.TriggerManual)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, domain.IsInactive(err))

	ledgerRepo.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything)
	scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestScheduleExecutor_Execute_ExhaustedButFlaggedActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*entities.RecurrenceSchedule)
	}{
		{
			name:   "limit already reached",
			mutate: func(s *entities.RecurrenceSchedule) { s.ExecutionLimit = 3; s.ExecutionsDone = 3 },
		},
		{
			name: "next occurrence after end date",
			mutate: func(s *entities.RecurrenceSchedule) {
				s.NextOccurrence = entities.NewDate(2024, time.April, 15)
				s.EndDate = testhelpers.DatePtr(2024, time.March, 31)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
			executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)

			schedule := testhelpers.NewTestSchedule(12, tt.mutate)
			before := *schedule

			result, err := executor.Execute(context.Background(), schedule, entities.TriggerManual)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, domain.IsInactive(err))
			assert.Equal(t, before, *schedule)

			ledgerRepo.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything)
			scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			publisher.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}
}

func TestScheduleExecutor_Execute_InvalidFrequencyHasNoSideEffects(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)

	schedule := testhelpers.NewTestSchedule(9, func(s *entities.RecurrenceSchedule) {
		s.Frequency = entities.Frequency("quarterly")
	})

	_, err := executor.Execute(context.Background(), schedule, entities.TriggerScheduled)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	ledgerRepo.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything)
	scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestScheduleExecutor_Execute_StorageFailures(t *testing.T) {
	t.Parallel()

	t.Run("ledger append fails", func(t *testing.T) {
		t.Parallel()

		scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
		executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
		ctx := context.Background()
		schedule := testhelpers.NewTestSchedule(1)

		ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(0), errors.New("disk full"))

		_, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
		require.Error(t, err)
		assert.True(t, domain.IsPersistence(err))
		assert.Contains(t, err.Error(), "disk full")

		assert.Equal(t, 0, schedule.ExecutionsDone)
		scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("schedule save fails", func(t *testing.T) {
		t.Parallel()

		scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
		executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
		ctx := context.Background()
		schedule := testhelpers.NewTestSchedule(2)
		before := schedule.NextOccurrence

		ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(3), nil)
		scheduleRepo.On("Save", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
		require.Error(t, err)
		assert.True(t, domain.IsPersistence(err))

		assert.Equal(t, 0, schedule.ExecutionsDone)
		assert.Equal(t, before, schedule.NextOccurrence)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestScheduleExecutor_Execute_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	ledgerRepo.On("AppendEntry", ctx, mock.Anything).Return(int64(1), nil)
	scheduleRepo.On("Save", ctx, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything).Return(errors.New("bus down"))

	result, err := executor.Execute(ctx, testhelpers.NewTestSchedule(1), entities.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.LedgerEntryID)
}

func TestScheduleExecutor_Execute_TransferEntry(t *testing.T) {
	t.Parallel()

	scheduleRepo, ledgerRepo, publisher := setupExecutorMocks()
	executor := NewScheduleExecutor(scheduleRepo, ledgerRepo, publisher)
	ctx := context.Background()

	schedule := testhelpers.NewTestSchedule(6, func(s *entities.RecurrenceSchedule) {
		s.Kind = entities.TransactionKindTransfer
		s.DestinationAccountID = testhelpers.Int64Ptr(2)
		s.CategoryID = testhelpers.Int64Ptr(44)
		s.Notes = ""
	})

	ledgerRepo.On("AppendEntry", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.DestinationAccountID != nil && *e.DestinationAccountID == 2 &&
			e.CategoryID != nil && *e.CategoryID == 44 &&
			e.Notes == entities.RecurringNotePrefix
	})).Return(int64(77), nil)
	scheduleRepo.On("Save", ctx, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	_, err := executor.Execute(ctx, schedule, entities.TriggerScheduled)
	require.NoError(t, err)
	ledgerRepo.AssertExpectations(t)
}
