package testhelpers

import (
	"context"
	"time"

	"fintrack/domain/entities"
	"fintrack/domain/events"
	"fintrack/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *entities.RecurrenceSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RecurrenceSchedule), args.Error(1)
}

func (m *MockScheduleRepository) GetForUpdate(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RecurrenceSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, schedule *entities.RecurrenceSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) List(ctx context.Context, filter interfaces.ScheduleFilter) ([]*entities.RecurrenceSchedule, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RecurrenceSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ListDue(ctx context.Context, asOf time.Time) ([]*entities.RecurrenceSchedule, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RecurrenceSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ListActiveForAccount(ctx context.Context, accountID int64) ([]*entities.RecurrenceSchedule, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RecurrenceSchedule), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) AppendEntry(ctx context.Context, entry *entities.LedgerEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) ListBalances(ctx context.Context, asOf time.Time) ([]*entities.AccountBalance, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AccountBalance), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, snapshot *entities.NetWorthSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListRecent(ctx context.Context, limit int) ([]*entities.NetWorthSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.NetWorthSnapshot), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockScheduleExecutor is a mock implementation of ScheduleExecutor
type MockScheduleExecutor struct {
	mock.Mock
}

func (m *MockScheduleExecutor) Execute(ctx context.Context, schedule *entities.RecurrenceSchedule, trigger entities.ExecutionTrigger) (*entities.ExecutionResult, error) {
	args := m.Called(ctx, schedule, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ExecutionResult), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, title, message string) error {
	args := m.Called(ctx, title, message)
	return args.Error(0)
}
