package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlopeRSquaredLinearSeries(t *testing.T) {
	slope, r2, err := SlopeRSquared([]float64{1, 3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestSlopeRSquaredDescendingSeries(t *testing.T) {
	slope, r2, err := SlopeRSquared([]float64{10, 8, 6, 4})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestSlopeRSquaredConstantSeries(t *testing.T) {
	slope, r2, err := SlopeRSquared([]float64{5, 5, 5, 5})
	require.NoError(t, err)
	assert.Zero(t, slope)
	assert.Zero(t, r2)
}

func TestSlopeRSquaredNoisySeriesBelowOne(t *testing.T) {
	_, r2, err := SlopeRSquared([]float64{1, 4, 2, 6, 3, 8})
	require.NoError(t, err)
	assert.Greater(t, r2, 0.0)
	assert.Less(t, r2, 1.0)
}

func TestSlopeRSquaredTooShort(t *testing.T) {
	_, _, err := SlopeRSquared([]float64{1})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = SlopeRSquared(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestZScoreKnownValue(t *testing.T) {
	// mean 4, sample std sqrt(12.5)
	z, err := ZScore([]float64{1, 2, 3, 4, 10}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 1.6971, z, 1e-4)
}

func TestZScoreLastAtMeanIsZero(t *testing.T) {
	z, err := ZScore([]float64{1, 3, 2}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, z, 1e-9)
}

func TestZScoreGrowsWithLastValue(t *testing.T) {
	prev := 0.0
	for _, last := range []float64{4, 5, 6, 7} {
		z, err := ZScore([]float64{1, 2, 3, last}, 3)
		require.NoError(t, err)
		assert.Greater(t, z, prev)
		prev = z
	}
}

func TestZScoreWindowCappedAtSeriesLength(t *testing.T) {
	full, err := ZScore([]float64{1, 2, 3}, 3)
	require.NoError(t, err)
	capped, err := ZScore([]float64{1, 2, 3}, 100)
	require.NoError(t, err)
	assert.Equal(t, full, capped)
}

func TestZScoreErrors(t *testing.T) {
	_, err := ZScore([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ZScore(nil, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = ZScore([]float64{1}, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = ZScore([]float64{7, 7, 7, 7}, 4)
	assert.ErrorIs(t, err, ErrDegenerateDistribution)
}

func TestPositionSizeVolatilityNormalized(t *testing.T) {
	qty, err := PositionSize(100000, 0.02, 50, 10)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, qty, 1e-9)

	// doubling volatility halves the position
	qty, err = PositionSize(100000, 0.02, 100, 10)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, qty, 1e-9)
}

func TestPositionSizeInvalidInputs(t *testing.T) {
	cases := []struct {
		name                             string
		balance, riskPct, atr, contracts float64
	}{
		{"zero balance", 0, 0.02, 50, 10},
		{"zero atr", 100000, 0.02, 0, 10},
		{"zero contract size", 100000, 0.02, 50, 0},
		{"zero risk", 100000, 0, 50, 10},
		{"risk above one", 100000, 1.5, 50, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PositionSize(tc.balance, tc.riskPct, tc.atr, tc.contracts)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}
