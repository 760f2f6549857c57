// Package sizing implements the closed form and per-trade Kelly sizing
// analyses of a PnL series.
package sizing

import (
	"math"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// Stats summarises a PnL series
type Stats struct {
	Trades   int
	Mean     float64
	Variance float64 // population
	StdDev   float64
	AvgWin   float64 // mean of strictly positive trades, NaN if none
	AvgLoss  float64 // mean of strictly negative trades (signed), NaN if none
	WinProb  float64
	LossProb float64
}

// ComputeStats returns the moments and win/loss split of pnl
func ComputeStats(pnl types.PnLSeries) Stats {
	values := pnl.Values()
	s := Stats{
		Trades:   len(values),
		Mean:     stats.Mean(values),
		Variance: stats.PopVariance(values),
		StdDev:   stats.PopStdDev(values),
		AvgWin:   stats.Mean(pnl.Wins()),
		AvgLoss:  stats.Mean(pnl.Losses()),
		WinProb:  math.NaN(),
		LossProb: math.NaN(),
	}
	if s.Trades > 0 {
		s.WinProb, s.LossProb = WinLossProbabilities(pnl)
	}
	return s
}
