package services

import (
	"errors"
	"math"
	"strconv"

	"fintrack/domain"
	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const (
	// singularThreshold bounds the normal-equation denominator below which the fit is treated as degenerate
	singularThreshold = 1e-9

	oldestWeight = 1.0
	newestWeight = 2.0

	trendDecimalPlaces = 2

	// MaxProjectionSteps caps how far past the last observation a report may extend
	MaxProjectionSteps = 10000
)

// ErrNoSnapshots is returned when a trend is requested over an empty series
var ErrNoSnapshots = errors.New("no historical snapshots")

// TrendForecaster fits a recency-weighted line over net-worth history
type TrendForecaster struct{}

// NewTrendForecaster creates a new TrendForecaster
func NewTrendForecaster() *TrendForecaster {
	return &TrendForecaster{}
}

// RecencyWeights returns n weights rising linearly from 1.0 for the oldest point to 2.0 for the newest
func RecencyWeights(n int) []float64 {
	weights := make([]float64, n)
	if n == 1 {
		weights[0] = oldestWeight
		return weights
	}
	step := (newestWeight - oldestWeight) / float64(n-1)
	for i := range weights {
		weights[i] = oldestWeight + step*float64(i)
	}
	return weights
}

// CalculateWeightedRegression fits y = slope*x + intercept over points ordered oldest first.
// A single point yields a flat line through it; a degenerate series falls back to the weighted mean.
func (f *TrendForecaster) CalculateWeightedRegression(points []entities.HistoricalSnapshot) (entities.TrendLine, error) {
	switch len(points) {
	case 0:
		return entities.TrendLine{}, ErrNoSnapshots
	case 1:
		return entities.TrendLine{Slope: decimal.Zero, Intercept: points[0].Value}, nil
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Index
		ys[i] = p.Value.InexactFloat64()
	}
	weights := RecencyWeights(len(points))

	var sumW, sumWX, sumWXX float64
	for i, x := range xs {
		w := weights[i]
		sumW += w
		sumWX += w * x
		sumWXX += w * x * x
	}

	denominator := sumW*sumWXX - sumWX*sumWX
	if math.Abs(denominator) < singularThreshold {
		return entities.TrendLine{
			Slope:     decimal.Zero,
			Intercept: decimal.NewFromFloat(stat.Mean(ys, weights)),
		}, nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, weights, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return entities.TrendLine{
			Slope:     decimal.Zero,
			Intercept: decimal.NewFromFloat(stat.Mean(ys, weights)),
		}, nil
	}

	return entities.TrendLine{
		Slope:     decimal.NewFromFloat(slope),
		Intercept: decimal.NewFromFloat(intercept),
	}, nil
}

// Project evaluates the fitted line at x
func Project(slope, intercept decimal.Decimal, x float64) decimal.Decimal {
	return slope.Mul(decimal.NewFromFloat(x)).Add(intercept)
}

// BuildReport fits the series and extends the trend steps indices past the last observation.
// Historical points are re-indexed 0..n-1 in the order given.
func (f *TrendForecaster) BuildReport(values []decimal.Decimal, steps int) (*entities.TrendReport, error) {
	if steps < 0 {
		steps = 0
	}
	if steps > MaxProjectionSteps {
		return nil, domain.NewValidationError("steps", "must be at most %d", MaxProjectionSteps)
	}

	points := make([]entities.HistoricalSnapshot, len(values))
	for i, v := range values {
		points[i] = entities.HistoricalSnapshot{Index: float64(i), Value: v}
	}

	line, err := f.CalculateWeightedRegression(points)
	if err != nil {
		return nil, err
	}

	total := len(values) + steps
	trend := make([]decimal.Decimal, total)
	labels := make([]string, 0, total)
	for i := range total {
		trend[i] = Project(line.Slope, line.Intercept, float64(i)).Round(trendDecimalPlaces)
		if i < len(values) {
			labels = append(labels, strconv.Itoa(i))
		} else {
			labels = append(labels, "+"+strconv.Itoa(i-len(values)+1))
		}
	}

	return &entities.TrendReport{
		TrendLine:  line,
		Historical: values,
		Trend:      trend,
		Labels:     labels,
	}, nil
}
