package services

import (
	"time"

	"fintrack/domain"
	"fintrack/domain/entities"
)

// ComputeNext returns the occurrence that follows date for the given cadence.
// Monthly and yearly steps clamp to the last valid day of the target month,
// so Jan 31 + 1 month is Feb 28 (or Feb 29 in a leap year).
func ComputeNext(date time.Time, frequency entities.Frequency, interval int) (time.Time, error) {
	if interval < 1 {
		return time.Time{}, domain.NewValidationError("interval", "must be at least 1, got %d", interval)
	}

	date = entities.DateOf(date)

	switch frequency {
	case entities.FrequencyDaily:
		return date.AddDate(0, 0, interval), nil
	case entities.FrequencyWeekly:
		return date.AddDate(0, 0, 7*interval), nil
	case entities.FrequencyBiweekly:
		return date.AddDate(0, 0, 14*interval), nil
	case entities.FrequencyMonthly:
		return addMonthsClamped(date, interval), nil
	case entities.FrequencyYearly:
		return addMonthsClamped(date, 12*interval), nil
	}

	return time.Time{}, domain.NewValidationError("frequency", "unsupported frequency %q", frequency)
}

// addMonthsClamped moves date forward by months without overflowing into the following month
func addMonthsClamped(date time.Time, months int) time.Time {
	total := int(date.Month()) - 1 + months
	year := date.Year() + total/12
	month := time.Month(total%12 + 1)

	day := date.Day()
	if last := entities.DaysIn(year, month); day > last {
		day = last
	}

	return entities.NewDate(year, month, day)
}
