package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

var sample = types.PnLSeries{0.02, -0.01, 0.03, 0, -0.02, 0.01}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sample)

	assert.Equal(t, 6, s.Trades)
	assert.InDelta(t, 0.005, s.Mean, 1e-12)
	// population variance
	assert.InDelta(t, 17.5e-4/6, s.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt(17.5e-4/6), s.StdDev, 1e-12)
	assert.InDelta(t, 0.02, s.AvgWin, 1e-12)
	assert.InDelta(t, -0.015, s.AvgLoss, 1e-12)
	assert.InDelta(t, 0.5, s.WinProb, 1e-12)
	assert.InDelta(t, 0.5, s.LossProb, 1e-12)
}

func TestComputeStats_NoLosses(t *testing.T) {
	s := ComputeStats(types.PnLSeries{0.1, 0.2})
	assert.True(t, math.IsNaN(s.AvgLoss))
}

func TestThorpKelly(t *testing.T) {
	f, err := ThorpKelly(0.01, 0.0004, 0)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, f, 1e-9)

	f, err = ThorpKelly(0.01, 0.0004, 0.002)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, f, 1e-9)

	_, err = ThorpKelly(0.01, 0, 0)
	assert.True(t, errors.Is(err, ErrZeroVariance))
}

func TestAnalyzeThorp(t *testing.T) {
	s := ComputeStats(types.PnLSeries{0.02, -0.01})
	r, err := AnalyzeThorp(s, 0)
	require.NoError(t, err)
	// mu 0.005, var 0.000225
	assert.InDelta(t, 0.005/0.000225, r.Fraction, 1e-9)
}

func TestWinLossProbabilities_ZeroIsLoss(t *testing.T) {
	p, q := WinLossProbabilities(types.PnLSeries{0.1, 0, -0.1, 0.2})
	assert.InDelta(t, 0.5, p, 1e-12)
	assert.InDelta(t, 0.5, q, 1e-12)
}

func TestKellyCurve(t *testing.T) {
	curve := KellyCurve(0.6, 0.4, 0.02, []float64{0, 0.01, 0.02})
	assert.True(t, math.IsNaN(curve[0]))
	assert.InDelta(t, 0.6/0.01-0.4/0.02, curve[1], 1e-9)
	assert.InDelta(t, 0.6/0.02-0.4/0.02, curve[2], 1e-9)

	noWins := KellyCurve(0, 1, 0, []float64{0.01})
	assert.True(t, math.IsNaN(noWins[0]))
}

func TestAnalyzeBetting(t *testing.T) {
	r := AnalyzeBetting(sample, DefaultLossGridMin, DefaultLossGridMax, DefaultLossGridPoints)

	require.Len(t, r.Losses, 100)
	require.Len(t, r.Fraction, 100)
	assert.Equal(t, 0.0, r.Losses[0])
	assert.InDelta(t, 0.2, r.Losses[99], 1e-12)
	assert.True(t, math.IsNaN(r.Fraction[0]))
	assert.InDelta(t, 0.015, r.AvgLoss, 1e-12)
	assert.InDelta(t, 0.5/0.015-0.5/0.02, r.AtAvgLoss, 1e-9)
}

func TestWinLossRatio(t *testing.T) {
	assert.InDelta(t, 0.02/0.015, WinLossRatio(sample), 1e-12)
	assert.True(t, math.IsInf(WinLossRatio(types.PnLSeries{0.1}), 1))
	assert.Equal(t, 0.0, WinLossRatio(types.PnLSeries{-0.1, 0}))
}

func TestSimulateFixedFraction(t *testing.T) {
	pnl := types.PnLSeries{0.1, -0.1, 0, 0.2}

	v := SimulateFixedFraction(pnl, 0.1, 2, 0)
	assert.InDelta(t, 1.2*0.9*0.9*1.2, v, 1e-12)

	first2 := SimulateFixedFraction(pnl, 0.1, 2, 2)
	assert.InDelta(t, 1.2*0.9, first2, 1e-12)

	clamped := SimulateFixedFraction(pnl, 0.1, 2, 59)
	assert.InDelta(t, v, clamped, 1e-12)
}

func TestOptimizeFixedFraction(t *testing.T) {
	// p = 0.5, wl = 2 -> growth optimum at risk 0.25
	pnl := types.PnLSeries{}
	for i := 0; i < 50; i++ {
		pnl = append(pnl, 0.02, -0.01)
	}
	r := OptimizeFixedFraction(pnl, WinLossRatio(pnl), DefaultMaxRisk, DefaultRiskPoints, 0)

	require.Len(t, r.Risks, 100)
	assert.InDelta(t, 0.25, r.OptimalRisk, 0.011)
	assert.InDelta(t, 2.0, r.WinLossRatio, 1e-12)
}

func TestOptimizeFixedFraction_ShuffledIsDeterministic(t *testing.T) {
	cfg := FixedFractionConfig{MaxRisk: 0.5, Points: 20, Trades: 4, Shuffles: 10, Seed: 7}
	a := OptimizeFixedFractionWithConfig(sample, WinLossRatio(sample), cfg)
	b := OptimizeFixedFractionWithConfig(sample, WinLossRatio(sample), cfg)
	assert.Equal(t, a.FinalValues, b.FinalValues)
	assert.Len(t, a.FinalValues, 20)
}
