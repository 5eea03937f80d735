package services

import (
	"iter"
	"time"

	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ForecastInput holds everything a balance projection depends on
type ForecastInput struct {
	AccountID      int64
	Today          time.Time
	CurrentBalance decimal.Decimal
	Schedules      []*entities.RecurrenceSchedule
	HorizonDays    int
}

// BalanceForecaster projects an account balance day by day from its schedules.
// It keeps no state between calls and is safe for concurrent use.
type BalanceForecaster struct{}

// NewBalanceForecaster creates a new BalanceForecaster
func NewBalanceForecaster() *BalanceForecaster {
	return &BalanceForecaster{}
}

// Points yields one ForecastPoint per day from Today through Today+HorizonDays inclusive.
// Each range over the sequence recomputes it from the input.
func (f *BalanceForecaster) Points(in ForecastInput) iter.Seq[entities.ForecastPoint] {
	return func(yield func(entities.ForecastPoint) bool) {
		if in.HorizonDays < 0 {
			return
		}

		today := entities.DateOf(in.Today)
		end := today.AddDate(0, 0, in.HorizonDays)
		deltas := f.collectDeltas(in.AccountID, in.Schedules, today, end)

		balance := in.CurrentBalance
		for day := 0; day <= in.HorizonDays; day++ {
			date := today.AddDate(0, 0, day)
			if delta, ok := deltas[date]; ok {
				balance = balance.Add(delta)
			}
			if !yield(entities.ForecastPoint{Date: date, Balance: balance}) {
				return
			}
		}
	}
}

// Forecast collects Points into a slice
func (f *BalanceForecaster) Forecast(in ForecastInput) []entities.ForecastPoint {
	points := make([]entities.ForecastPoint, 0, max(in.HorizonDays+1, 0))
	for p := range f.Points(in) {
		points = append(points, p)
	}
	return points
}

// collectDeltas maps each date in [from, to] to the net balance change of the schedules due that day
func (f *BalanceForecaster) collectDeltas(accountID int64, schedules []*entities.RecurrenceSchedule, from, to time.Time) map[time.Time]decimal.Decimal {
	deltas := make(map[time.Time]decimal.Decimal)

	for _, s := range schedules {
		if s == nil || !s.Active {
			continue
		}

		amount := s.SignedAmountFor(accountID)
		if amount.IsZero() {
			continue
		}

		date := entities.DateOf(s.NextOccurrence)
		if _, err := ComputeNext(date, s.Frequency, s.Interval); err != nil {
			log.WithFields(log.Fields{
				"schedule_id": s.ID,
				"frequency":   s.Frequency,
				"interval":    s.Interval,
			}).Warnf("Skipping schedule in forecast: %v", err)
			continue
		}

		remaining := -1
		if s.HasLimit() {
			remaining = s.ExecutionLimit - s.ExecutionsDone
			if remaining <= 0 {
				continue
			}
		}

		for !date.After(to) && remaining != 0 {
			if s.PastEnd(date) {
				break
			}
			if !date.Before(from) {
				deltas[date] = deltas[date].Add(amount)
			}
			if remaining > 0 {
				remaining--
			}

			next, err := ComputeNext(date, s.Frequency, s.Interval)
			if err != nil {
				break
			}
			date = next
		}
	}

	return deltas
}
