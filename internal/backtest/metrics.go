package backtest

import (
	"math"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
)

// TradingDaysPerYear annualises daily Sharpe ratios
const TradingDaysPerYear = 252

// GenerateSignals runs the entry/exit state machine over an RSI series.
//
// Flat to long when RSI crosses from above lower to at or below it; long to
// flat when it crosses from below upper to at or above it. The signal at
// index 0 is always 0 and comparisons with NaN are false.
func GenerateSignals(rsi []float64, lower, upper float64) []int {
	signal := make([]int, len(rsi))
	active := false
	for i := 1; i < len(rsi); i++ {
		prev, cur := rsi[i-1], rsi[i]
		if !active && prev > lower && cur <= lower {
			active = true
		} else if active && prev < upper && cur >= upper {
			active = false
		}
		if active {
			signal[i] = 1
		}
	}
	return signal
}

// PctChange returns the simple returns of prices, NaN at index 0
func PctChange(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = prices[i]/prices[i-1] - 1
	}
	return out
}

// ApplySignal returns returns[i] * signal[i-1]. Index 0 is NaN.
func ApplySignal(returns []float64, signal []int) []float64 {
	out := make([]float64, len(returns))
	for i := range returns {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = returns[i] * float64(signal[i-1])
	}
	return out
}

// CompoundedReturns returns prod(1 + r) - 1 up to each index. NaN returns
// stay NaN in the output and are skipped by the product.
func CompoundedReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			continue
		}
		growth *= 1 + r
		out[i] = growth - 1
	}
	return out
}

// DrawdownSeries returns (equity - peak) / peak with equity = cumulative + 1.
// NaN entries are skipped by the running peak.
func DrawdownSeries(cumulative []float64) []float64 {
	out := make([]float64, len(cumulative))
	peak := math.NaN()
	for i, c := range cumulative {
		if math.IsNaN(c) {
			out[i] = math.NaN()
			continue
		}
		equity := c + 1
		if math.IsNaN(peak) || equity > peak {
			peak = equity
		}
		out[i] = (equity - peak) / peak
	}
	return out
}

// CountTrades counts flat to long transitions
func CountTrades(signal []int) int {
	trades := 0
	for i := 1; i < len(signal); i++ {
		if signal[i] == 1 && signal[i-1] == 0 {
			trades++
		}
	}
	return trades
}

// AnnualizedSharpe returns sqrt(252) * mean / std of the daily returns,
// skipping NaN. The standard deviation uses ddof 1.
func AnnualizedSharpe(returns []float64) float64 {
	return math.Sqrt(TradingDaysPerYear) * stats.NanMean(returns) / stats.NanSampleStdDev(returns)
}
