package services

import (
	"math"
	"testing"

	"fintrack/domain"
	"fintrack/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...float64) []entities.HistoricalSnapshot {
	points := make([]entities.HistoricalSnapshot, len(values))
	for i, v := range values {
		points[i] = entities.HistoricalSnapshot{Index: float64(i), Value: decimal.NewFromFloat(v)}
	}
	return points
}

func TestRecencyWeights(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{1}, RecencyWeights(1))
	assert.Equal(t, []float64{1, 2}, RecencyWeights(2))
	assert.InDeltaSlice(t, []float64{1, 1.25, 1.5, 1.75, 2}, RecencyWeights(5), 1e-12)
}

func TestTrendForecaster_SinglePoint(t *testing.T) {
	t.Parallel()

	v := decimal.RequireFromString("1234.56")
	line, err := NewTrendForecaster().CalculateWeightedRegression([]entities.HistoricalSnapshot{{Index: 0, Value: v}})
	require.NoError(t, err)
	assert.True(t, line.Slope.IsZero())
	assert.True(t, line.Intercept.Equal(v))
}

func TestTrendForecaster_Empty(t *testing.T) {
	t.Parallel()

	_, err := NewTrendForecaster().CalculateWeightedRegression(nil)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestTrendForecaster_ExactLine(t *testing.T) {
	t.Parallel()

	// y = 3x + 10 is recovered regardless of weighting
	line, err := NewTrendForecaster().CalculateWeightedRegression(series(10, 13, 16, 19, 22))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, line.Slope.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10.0, line.Intercept.InexactFloat64(), 1e-9)
}

func TestTrendForecaster_WeightsFavourRecentPoints(t *testing.T) {
	t.Parallel()

	// Unweighted fit of (0,0) (1,10) (2,0) is flat at 10/3; the newest point pulls the weighted fit down
	line, err := NewTrendForecaster().CalculateWeightedRegression(series(0, 10, 0))
	require.NoError(t, err)

	// Weights 1, 1.5, 2: Σw=4.5 Σwx=5.5 Σwx²=9.5 Σwy=15 Σwxy=15
	// slope = (4.5*15 - 5.5*15) / (4.5*9.5 - 5.5²) = -15/12.5 = -1.2
	// intercept = (15 - (-1.2)*5.5) / 4.5 = 4.8
	assert.InDelta(t, -1.2, line.Slope.InexactFloat64(), 1e-9)
	assert.InDelta(t, 4.8, line.Intercept.InexactFloat64(), 1e-9)
}

func TestTrendForecaster_DegenerateSeries(t *testing.T) {
	t.Parallel()

	// Every observation shares the same index so the design matrix is singular
	points := []entities.HistoricalSnapshot{
		{Index: 5, Value: decimal.NewFromInt(100)},
		{Index: 5, Value: decimal.NewFromInt(200)},
	}

	var line entities.TrendLine
	var err error
	assert.NotPanics(t, func() {
		line, err = NewTrendForecaster().CalculateWeightedRegression(points)
	})
	require.NoError(t, err)
	assert.True(t, line.Slope.IsZero())
	// Weighted mean with weights 1 and 2
	assert.InDelta(t, 500.0/3.0, line.Intercept.InexactFloat64(), 1e-9)
}

func TestProject(t *testing.T) {
	t.Parallel()

	slope := decimal.RequireFromString("2.5")
	intercept := decimal.NewFromInt(100)

	assert.True(t, Project(slope, intercept, 0).Equal(decimal.NewFromInt(100)))
	assert.True(t, Project(slope, intercept, 4).Equal(decimal.NewFromInt(110)))
	assert.True(t, Project(slope, intercept, 7.5).Equal(decimal.RequireFromString("118.75")))
}

func TestTrendForecaster_BuildReport(t *testing.T) {
	t.Parallel()

	values := []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(200),
		decimal.NewFromInt(300),
	}

	report, err := NewTrendForecaster().BuildReport(values, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2", "+1", "+2", "+3"}, report.Labels)
	assert.Equal(t, values, report.Historical)
	require.Len(t, report.Trend, 6)

	expected := []int64{100, 200, 300, 400, 500, 600}
	for i, want := range expected {
		assert.True(t, report.Trend[i].Equal(decimal.NewFromInt(want)), "trend[%d] = %s", i, report.Trend[i])
	}
}

func TestTrendForecaster_BuildReportEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewTrendForecaster().BuildReport(nil, 3)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestTrendForecaster_BuildReportRejectsHugeProjection(t *testing.T) {
	t.Parallel()

	values := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}

	for _, steps := range []int{MaxProjectionSteps + 1, math.MaxInt} {
		report, err := NewTrendForecaster().BuildReport(values, steps)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, domain.IsValidation(err))
	}

	report, err := NewTrendForecaster().BuildReport(values, MaxProjectionSteps)
	require.NoError(t, err)
	assert.Len(t, report.Trend, len(values)+MaxProjectionSteps)
}
