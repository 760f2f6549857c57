// Package montecarlo holds the equity statistics of a trade series, the
// resampling simulations built on them and the Kelly fraction sweep.
package montecarlo

import (
	"math"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
)

// CumulativeReturns returns the additive equity curve of pnl
func CumulativeReturns(pnl []float64) []float64 {
	return stats.CumSum(pnl)
}

// FinalReturn is the last point of the additive equity curve
func FinalReturn(pnl []float64) float64 {
	if len(pnl) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range pnl {
		sum += v
	}
	return sum
}

// MaxDrawdown returns min(cum - running max). The result is <= 0.
func MaxDrawdown(cum []float64) float64 {
	if len(cum) == 0 {
		return math.NaN()
	}
	peak := cum[0]
	worst := 0.0
	for _, v := range cum {
		if v > peak {
			peak = v
		}
		if dd := v - peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

func excess(pnl []float64, rf float64) []float64 {
	out := make([]float64, len(pnl))
	for i, v := range pnl {
		out[i] = v - rf
	}
	return out
}

// Sharpe returns mean(excess) / popstd(excess) per trade, not annualised
func Sharpe(pnl []float64, rf float64) float64 {
	ex := excess(pnl, rf)
	return stats.Mean(ex) / stats.PopStdDev(ex)
}

// Sortino returns mean(excess) / popstd(negative excess). NaN without
// negative trades.
func Sortino(pnl []float64, rf float64) float64 {
	ex := excess(pnl, rf)
	downside := make([]float64, 0, len(ex))
	for _, v := range ex {
		if v < 0 {
			downside = append(downside, v)
		}
	}
	if len(downside) == 0 {
		return math.NaN()
	}
	return stats.Mean(ex) / stats.PopStdDev(downside)
}

// EquityReport describes the recorded trade order
type EquityReport struct {
	Cumulative  []float64
	FinalReturn float64
	MaxDrawdown float64
	Sharpe      float64
	Sortino     float64
}

// AnalyzeEquity computes the equity curve and its ratios
func AnalyzeEquity(pnl []float64, rf float64) EquityReport {
	cum := CumulativeReturns(pnl)
	return EquityReport{
		Cumulative:  cum,
		FinalReturn: FinalReturn(pnl),
		MaxDrawdown: MaxDrawdown(cum),
		Sharpe:      Sharpe(pnl, rf),
		Sortino:     Sortino(pnl, rf),
	}
}
