package application

import (
	"context"
	"sync"
	"time"

	"fintrack/domain/interfaces"
	"fintrack/domain/testhelpers"
)

// fakeUnitOfWorkFactory hands out units of work that share one set of mock repositories
type fakeUnitOfWorkFactory struct {
	Schedules *testhelpers.MockScheduleRepository
	Ledger    *testhelpers.MockLedgerRepository
	Accounts  *testhelpers.MockAccountRepository
	Snapshots *testhelpers.MockSnapshotRepository
	Bus       *testhelpers.MockEventPublisher

	BeginErr  error
	CommitErr error

	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
}

func newFakeUnitOfWorkFactory() *fakeUnitOfWorkFactory {
	return &fakeUnitOfWorkFactory{
		Schedules: new(testhelpers.MockScheduleRepository),
		Ledger:    new(testhelpers.MockLedgerRepository),
		Accounts:  new(testhelpers.MockAccountRepository),
		Snapshots: new(testhelpers.MockSnapshotRepository),
		Bus:       new(testhelpers.MockEventPublisher),
	}
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	return &fakeUnitOfWork{factory: f}
}

func (f *fakeUnitOfWorkFactory) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

type fakeUnitOfWork struct {
	factory  *fakeUnitOfWorkFactory
	finished bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.factory.begins++
	return u.factory.BeginErr
}

func (u *fakeUnitOfWork) Commit() error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	if u.factory.CommitErr != nil {
		return u.factory.CommitErr
	}
	u.factory.commits++
	u.finished = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	if !u.finished {
		u.factory.rollbacks++
		u.finished = true
	}
	return nil
}

func (u *fakeUnitOfWork) ScheduleRepository() interfaces.ScheduleRepository {
	return u.factory.Schedules
}

func (u *fakeUnitOfWork) LedgerRepository() interfaces.LedgerRepository {
	return u.factory.Ledger
}

func (u *fakeUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.factory.Accounts
}

func (u *fakeUnitOfWork) SnapshotRepository() interfaces.SnapshotRepository {
	return u.factory.Snapshots
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.factory.Bus
}

// recordingMetrics captures metric calls for assertions
type recordingMetrics struct {
	mu         sync.Mutex
	executions map[string]int
	scans      int
	snapshots  []float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{executions: make(map[string]int)}
}

func (m *recordingMetrics) RecordScheduleExecution(trigger, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions[trigger+"/"+outcome]++
}

func (m *recordingMetrics) RecordScan(due, successful, failed int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
}

func (m *recordingMetrics) RecordSnapshot(netWorth float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, netWorth)
}
