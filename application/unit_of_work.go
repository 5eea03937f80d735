package application

import (
	"context"

	"fintrack/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and then flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	ScheduleRepository() interfaces.ScheduleRepository
	LedgerRepository() interfaces.LedgerRepository
	AccountRepository() interfaces.AccountRepository
	SnapshotRepository() interfaces.SnapshotRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
