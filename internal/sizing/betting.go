package sizing

import (
	"math"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// Default grid of average loss values for the betting curve
const (
	DefaultLossGridMin    = 0.0
	DefaultLossGridMax    = 0.2
	DefaultLossGridPoints = 100
)

// WinLossProbabilities returns p, the share of strictly positive trades, and
// q = 1 - p. Flat trades count as losses.
func WinLossProbabilities(pnl types.PnLSeries) (p, q float64) {
	total := pnl.Len()
	if total == 0 {
		return math.NaN(), math.NaN()
	}
	wins := len(pnl.Wins())
	losses := total - wins
	return float64(wins) / float64(total), float64(losses) / float64(total)
}

// AvgWin returns b, the mean winning trade, 0 if there are none
func AvgWin(pnl types.PnLSeries) float64 {
	wins := pnl.Wins()
	if len(wins) == 0 {
		return 0
	}
	return stats.Mean(wins)
}

// AvgLossAbs returns a, the magnitude of the mean losing trade, 0 if none
func AvgLossAbs(pnl types.PnLSeries) float64 {
	losses := pnl.Losses()
	if len(losses) == 0 {
		return 0
	}
	return math.Abs(stats.Mean(losses))
}

// KellyCurve evaluates f = p/a - q/b for each a. Points where a or b is not
// positive are NaN.
func KellyCurve(p, q, b float64, as []float64) []float64 {
	out := make([]float64, len(as))
	for i, a := range as {
		if a <= 0 || b <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = p/a - q/b
	}
	return out
}

// BettingResult holds the inputs and curve of the betting method
type BettingResult struct {
	WinProb  float64
	LossProb float64
	AvgWin   float64
	AvgLoss  float64
	Losses   []float64 // the a grid
	Fraction []float64 // f at each a
	// AtAvgLoss is f evaluated at the series' own average loss
	AtAvgLoss float64
}

// AnalyzeBetting runs the betting method over an evenly spaced grid of a
func AnalyzeBetting(pnl types.PnLSeries, lo, hi float64, points int) BettingResult {
	p, q := WinLossProbabilities(pnl)
	b := AvgWin(pnl)
	a := AvgLossAbs(pnl)
	grid := stats.Linspace(lo, hi, points)

	return BettingResult{
		WinProb:   p,
		LossProb:  q,
		AvgWin:    b,
		AvgLoss:   a,
		Losses:    grid,
		Fraction:  KellyCurve(p, q, b, grid),
		AtAvgLoss: KellyCurve(p, q, b, []float64{a})[0],
	}
}
