// Package stats implements the pure statistical measures behind regime
// classification and position sizing. All functions are stateless and safe
// to call concurrently.
package stats

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientData means the series is too short for the statistic.
	ErrInsufficientData = errors.New("stats: insufficient data")
	// ErrDegenerateDistribution means the series has no meaningful variance.
	ErrDegenerateDistribution = errors.New("stats: degenerate distribution")
	// ErrInvalidParameter means an input is out of its valid range.
	ErrInvalidParameter = errors.New("stats: invalid parameter")
)

// stddevFloor below which a distribution is treated as degenerate.
const stddevFloor = 1e-10

// SlopeRSquared fits value against index position by ordinary least squares
// and returns the slope together with the coefficient of determination.
// A series with zero total variance has no linear signal: slope 0, r2 0.
func SlopeRSquared(series []float64) (slope, r2 float64, err error) {
	n := len(series)
	if n < 2 {
		return 0, 0, ErrInsufficientData
	}

	fn := float64(n)
	xMean := (fn - 1) / 2

	var yMean float64
	for _, v := range series {
		yMean += v
	}
	yMean /= fn

	var cov, xVar float64
	for i, v := range series {
		dx := float64(i) - xMean
		cov += dx * (v - yMean)
		xVar += dx * dx
	}
	slope = cov / xVar
	intercept := yMean - slope*xMean

	var ssRes, ssTot float64
	for i, v := range series {
		pred := intercept + slope*float64(i)
		ssRes += (v - pred) * (v - pred)
		ssTot += (v - yMean) * (v - yMean)
	}
	if ssTot == 0 {
		return 0, 0, nil
	}

	r2 = 1 - ssRes/ssTot
	if r2 < 0 {
		r2 = 0
	}
	return slope, r2, nil
}

// ZScore returns how many sample standard deviations the last value lies
// from the mean of the trailing window. When the series is shorter than the
// window, all available values are used.
func ZScore(series []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, ErrInvalidParameter
	}
	if len(series) == 0 {
		return 0, ErrInsufficientData
	}
	if window > len(series) {
		window = len(series)
	}
	if window < 2 {
		return 0, ErrInsufficientData
	}

	tail := series[len(series)-window:]
	var sum, sum2 float64
	for _, v := range tail {
		sum += v
		sum2 += v * v
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)
	if std < stddevFloor {
		return 0, ErrDegenerateDistribution
	}
	return (series[len(series)-1] - mean) / std, nil
}

// PositionSize computes volatility-normalized position size:
// (balance * riskPct) / (atr * contractSize). Risk per trade stays constant
// regardless of volatility.
func PositionSize(balance, riskPct, atr, contractSize float64) (float64, error) {
	if balance <= 0 || atr <= 0 || contractSize <= 0 {
		return 0, ErrInvalidParameter
	}
	if riskPct <= 0 || riskPct > 1 {
		return 0, ErrInvalidParameter
	}
	return (balance * riskPct) / (atr * contractSize), nil
}
