package application

import (
	"context"
	"fmt"
	"time"

	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/events"

	log "github.com/sirupsen/logrus"
)

// NetWorthSnapshotJob captures the daily net-worth snapshot consumed by the trend report
type NetWorthSnapshotJob struct {
	uowFactory UnitOfWorkFactory
	metrics    MetricsRecorder
	clock      func() time.Time
}

// NewNetWorthSnapshotJob creates a new snapshot job
func NewNetWorthSnapshotJob(uowFactory UnitOfWorkFactory, metrics MetricsRecorder) *NetWorthSnapshotJob {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &NetWorthSnapshotJob{
		uowFactory: uowFactory,
		metrics:    metrics,
		clock:      time.Now,
	}
}

// Run captures today's snapshot; used by the scheduler
func (j *NetWorthSnapshotJob) Run(ctx context.Context) {
	if _, err := j.Capture(ctx, j.clock()); err != nil {
		log.Errorf("Error capturing net worth snapshot: %v", err)
	}
}

// Capture totals every account balance as of asOf and stores it, replacing an earlier capture of the same day
func (j *NetWorthSnapshotJob) Capture(ctx context.Context, asOf time.Time) (*entities.NetWorthSnapshot, error) {
	asOf = entities.DateOf(asOf)

	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balances, err := uow.AccountRepository().ListBalances(ctx, asOf)
	if err != nil {
		return nil, domain.NewPersistenceError("list account balances", err)
	}

	snapshot := entities.NewNetWorthSnapshot(asOf, balances)
	if err := uow.SnapshotRepository().Upsert(ctx, snapshot); err != nil {
		return nil, domain.NewPersistenceError("store snapshot", err)
	}

	if err := uow.EventBus().Publish(events.SnapshotCapturedEvent{
		CapturedOn: snapshot.CapturedOn,
		NetWorth:   snapshot.NetWorth,
	}); err != nil {
		log.Warnf("Failed to queue snapshot event: %v", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, domain.NewPersistenceError("commit snapshot", err)
	}

	j.metrics.RecordSnapshot(snapshot.NetWorth.InexactFloat64())

	log.WithFields(log.Fields{
		"captured_on": entities.FormatDate(snapshot.CapturedOn),
		"accounts":    len(balances),
		"liquid":      snapshot.Liquid.String(),
		"assets":      snapshot.Assets.String(),
		"investments": snapshot.Investments.String(),
		"net_worth":   snapshot.NetWorth.String(),
	}).Info("Captured net worth snapshot")

	return snapshot, nil
}
