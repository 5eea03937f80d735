package repository

import (
	"context"
	"sync"
	"testing"

	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/services"
	"fintrack/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu        sync.Mutex
	pending   []events.Event
	flushed   []events.Event
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discarded += len(p.pending)
	p.pending = nil
}

func TestUnitOfWork_ExecuteCommitsAtomically(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB)
	checking := testutil.InsertAccount(t, testDB.DB, "Checking", entities.AccountCategoryLiquid, "0")

	schedule := testutil.CreateTestSchedule(checking, entities.NewDate(2024, 1, 31))
	schedule.ExecutionLimit = 2
	require.NoError(t, NewScheduleRepository(testDB.DB).Create(ctx, schedule))

	execute := func(publisher *recordingPublisher) (*entities.ExecutionResult, error) {
		uow := factory.CreateWithPublisher(publisher)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		locked, err := uow.ScheduleRepository().GetForUpdate(ctx, schedule.ID)
		require.NoError(t, err)
		executor := services.NewScheduleExecutor(uow.ScheduleRepository(), uow.LedgerRepository(), uow.EventBus())
		result, err := executor.Execute(ctx, locked, entities.TriggerManual)
		if err != nil {
			return nil, err
		}
		return result, uow.Commit()
	}

	t.Run("first execution", func(t *testing.T) {
		publisher := &recordingPublisher{}
		result, err := execute(publisher)
		require.NoError(t, err)
		assert.Equal(t, entities.NewDate(2024, 1, 31), result.OccurrenceDate)
		assert.Equal(t, entities.NewDate(2024, 2, 29), result.NextOccurrence)
		assert.True(t, result.Active)
		assert.Len(t, publisher.flushed, 1)
	})

	t.Run("limit reached deactivates", func(t *testing.T) {
		publisher := &recordingPublisher{}
		result, err := execute(publisher)
		require.NoError(t, err)
		assert.False(t, result.Active)
		assert.Len(t, publisher.flushed, 2)

		stored, err := NewScheduleRepository(testDB.DB).GetByID(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.ExecutionsDone)
		assert.False(t, stored.Active)
	})

	t.Run("inactive rejected", func(t *testing.T) {
		_, err := execute(&recordingPublisher{})
		assert.True(t, domain.IsInactive(err))

		entries, err := NewLedgerRepository(testDB.DB).ListBySchedule(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB)
	checking := testutil.InsertAccount(t, testDB.DB, "Checking", entities.AccountCategoryLiquid, "0")

	schedule := testutil.CreateTestSchedule(checking, entities.NewDate(2024, 1, 15))
	require.NoError(t, NewScheduleRepository(testDB.DB).Create(ctx, schedule))

	publisher := &recordingPublisher{}
	uow := factory.CreateWithPublisher(publisher)
	require.NoError(t, uow.Begin(ctx))

	locked, err := uow.ScheduleRepository().GetForUpdate(ctx, schedule.ID)
	require.NoError(t, err)
	executor := services.NewScheduleExecutor(uow.ScheduleRepository(), uow.LedgerRepository(), uow.EventBus())
	_, err = executor.Execute(ctx, locked, entities.TriggerScheduled)
	require.NoError(t, err)

	require.NoError(t, uow.Rollback())
	assert.Empty(t, publisher.flushed)
	assert.Equal(t, 1, publisher.discarded)

	stored, err := NewScheduleRepository(testDB.DB).GetByID(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ExecutionsDone)
	assert.Equal(t, entities.NewDate(2024, 1, 15), stored.NextOccurrence)

	entries, err := NewLedgerRepository(testDB.DB).ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnitOfWork_ConcurrentExecutionsAdvanceOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB)
	checking := testutil.InsertAccount(t, testDB.DB, "Checking", entities.AccountCategoryLiquid, "0")

	schedule := testutil.CreateTestSchedule(checking, entities.NewDate(2024, 1, 15))
	require.NoError(t, NewScheduleRepository(testDB.DB).Create(ctx, schedule))

	asOf := entities.NewDate(2024, 1, 15)
	var wg sync.WaitGroup
	var mu sync.Mutex
	executed := 0

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			uow := factory.CreateWithPublisher(&recordingPublisher{})
			if err := uow.Begin(ctx); err != nil {
				return
			}
			defer uow.Rollback()

			locked, err := uow.ScheduleRepository().GetForUpdate(ctx, schedule.ID)
			if err != nil || locked == nil || !locked.IsDue(asOf) {
				return
			}
			executor := services.NewScheduleExecutor(uow.ScheduleRepository(), uow.LedgerRepository(), uow.EventBus())
			if _, err := executor.Execute(ctx, locked, entities.TriggerScheduled); err != nil {
				return
			}
			if uow.Commit() == nil {
				mu.Lock()
				executed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, executed)

	entries, err := NewLedgerRepository(testDB.DB).ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil).CreateWithPublisher(&recordingPublisher{})

	assert.Panics(t, func() { uow.ScheduleRepository() })
	assert.Panics(t, func() { uow.LedgerRepository() })
	assert.NoError(t, uow.Rollback())
	assert.Error(t, uow.Commit())
}
