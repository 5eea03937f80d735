package application

import (
	"context"
	"strconv"
	"time"

	"fintrack/application/dto"
	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/services"

	"github.com/shopspring/decimal"
)

// ForecastService serves the read-only balance forecast and net-worth trend
type ForecastService struct {
	uowFactory        UnitOfWorkFactory
	balanceForecaster *services.BalanceForecaster
	trendForecaster   *services.TrendForecaster
	maxDays           int
	maxPeriods        int
	maxSteps          int
}

const (
	defaultTrendMaxPeriods = 366
	defaultTrendMaxSteps   = 120
)

// ForecastOption customizes a ForecastService
type ForecastOption func(*ForecastService)

// WithTrendLimits bounds the snapshot window and projection length of trend requests
func WithTrendLimits(maxPeriods, maxSteps int) ForecastOption {
	return func(s *ForecastService) {
		s.maxPeriods = maxPeriods
		s.maxSteps = maxSteps
	}
}

// NewForecastService creates a new forecast service; maxDays bounds the horizon callers may request
func NewForecastService(uowFactory UnitOfWorkFactory, maxDays int, opts ...ForecastOption) *ForecastService {
	s := &ForecastService{
		uowFactory:        uowFactory,
		balanceForecaster: services.NewBalanceForecaster(),
		trendForecaster:   services.NewTrendForecaster(),
		maxDays:           maxDays,
		maxPeriods:        defaultTrendMaxPeriods,
		maxSteps:          defaultTrendMaxSteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForecastAccount projects an account balance from today through today+days.
// The starting balance is the opening balance plus every ledger entry dated up to today.
func (s *ForecastService) ForecastAccount(ctx context.Context, accountID int64, days int, today time.Time) (*dto.AccountForecast, error) {
	if days < 0 || (s.maxDays > 0 && days > s.maxDays) {
		return nil, domain.NewValidationError("days", "must be between 0 and %d", s.maxDays)
	}
	today = entities.DateOf(today)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, domain.NewPersistenceError("get account", err)
	}
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "account", ID: accountID}
	}

	balance, err := uow.AccountRepository().GetBalance(ctx, accountID, today)
	if err != nil {
		return nil, domain.NewPersistenceError("get account balance", err)
	}

	schedules, err := uow.ScheduleRepository().ListActiveForAccount(ctx, accountID)
	if err != nil {
		return nil, domain.NewPersistenceError("list account schedules", err)
	}

	points := s.balanceForecaster.Forecast(services.ForecastInput{
		AccountID:      accountID,
		Today:          today,
		CurrentBalance: balance,
		Schedules:      schedules,
		HorizonDays:    days,
	})

	return dto.NewAccountForecast(account, today, balance, days, points), nil
}

// NetWorthTrend fits the latest periods snapshots and projects steps further
func (s *ForecastService) NetWorthTrend(ctx context.Context, periods, steps int) (*entities.TrendReport, error) {
	if periods < 1 || periods > s.maxPeriods {
		return nil, domain.NewValidationError("periods", "must be between 1 and %d", s.maxPeriods)
	}
	if steps < 0 || steps > s.maxSteps {
		return nil, domain.NewValidationError("steps", "must be between 0 and %d", s.maxSteps)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, domain.NewPersistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	snapshots, err := uow.SnapshotRepository().ListRecent(ctx, periods)
	if err != nil {
		return nil, domain.NewPersistenceError("list snapshots", err)
	}

	if len(snapshots) == 0 {
		return emptyTrendReport(steps), nil
	}

	values := make([]decimal.Decimal, len(snapshots))
	for i, snap := range snapshots {
		values[i] = snap.NetWorth
	}
	return s.trendForecaster.BuildReport(values, steps)
}

// emptyTrendReport is a flat zero line used before any snapshot exists
func emptyTrendReport(steps int) *entities.TrendReport {
	report := &entities.TrendReport{
		TrendLine:  entities.TrendLine{Slope: decimal.Zero, Intercept: decimal.Zero},
		Historical: []decimal.Decimal{},
		Trend:      make([]decimal.Decimal, steps),
		Labels:     make([]string, steps),
	}
	for i := range steps {
		report.Trend[i] = decimal.Zero
		report.Labels[i] = "+" + strconv.Itoa(i+1)
	}
	return report
}
