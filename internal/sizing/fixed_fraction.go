package sizing

import (
	"math"
	"math/rand"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// Defaults of the fixed-fraction sweep
const (
	DefaultMaxRisk    = 1.0
	DefaultRiskPoints = 100
	DefaultMinRisk    = 0.01
)

// WinLossRatio returns mean win / |mean loss|. +Inf without losses, 0 without wins.
func WinLossRatio(pnl types.PnLSeries) float64 {
	losses := pnl.Losses()
	if len(losses) == 0 {
		return math.Inf(1)
	}
	wins := pnl.Wins()
	if len(wins) == 0 {
		return 0
	}
	return stats.Mean(wins) / math.Abs(stats.Mean(losses))
}

// clampTrades bounds n to [1, len(pnl)], treating n <= 0 as all trades
func clampTrades(n, total int) int {
	if n <= 0 || n > total {
		return total
	}
	return n
}

// SimulateFixedFraction walks the first n trades in order. A win multiplies
// equity by 1 + risk*wl, anything else by 1 - risk.
func SimulateFixedFraction(pnl types.PnLSeries, risk, wl float64, n int) float64 {
	n = clampTrades(n, pnl.Len())
	value := 1.0
	for i := 0; i < n; i++ {
		if pnl[i] > 0 {
			value *= 1 + risk*wl
		} else {
			value *= 1 - risk
		}
	}
	return value
}

// FixedFractionConfig configures the risk sweep
type FixedFractionConfig struct {
	MaxRisk float64
	Points  int
	Trades  int // leading trades replayed, <= 0 means every trade rather than a fixed count
	// Shuffles > 0 averages each risk over that many random orderings of
	// the trades instead of the recorded order
	Shuffles int
	Seed     int64
}

// DefaultFixedFractionConfig returns the sweep used by the fixed-fraction report
func DefaultFixedFractionConfig() FixedFractionConfig {
	return FixedFractionConfig{
		MaxRisk: DefaultMaxRisk,
		Points:  DefaultRiskPoints,
	}
}

// FixedFractionResult is the risk sweep outcome
type FixedFractionResult struct {
	WinLossRatio float64
	OptimalRisk  float64
	Risks        []float64
	FinalValues  []float64
}

// OptimizeFixedFraction sweeps linspace(0.01, maxRisk, points) over the
// recorded trade order and returns the risk maximising final equity
func OptimizeFixedFraction(pnl types.PnLSeries, wl, maxRisk float64, points, trades int) FixedFractionResult {
	return OptimizeFixedFractionWithConfig(pnl, wl, FixedFractionConfig{
		MaxRisk: maxRisk,
		Points:  points,
		Trades:  trades,
	})
}

// OptimizeFixedFractionWithConfig is OptimizeFixedFraction with optional
// shuffled repeats
func OptimizeFixedFractionWithConfig(pnl types.PnLSeries, wl float64, cfg FixedFractionConfig) FixedFractionResult {
	risks := stats.Linspace(DefaultMinRisk, cfg.MaxRisk, cfg.Points)
	finals := make([]float64, len(risks))

	orders := []types.PnLSeries{pnl}
	if cfg.Shuffles > 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		orders = make([]types.PnLSeries, cfg.Shuffles)
		for k := range orders {
			shuffled := make(types.PnLSeries, pnl.Len())
			copy(shuffled, pnl)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			orders[k] = shuffled
		}
	}

	for i, risk := range risks {
		sum := 0.0
		for _, order := range orders {
			sum += SimulateFixedFraction(order, risk, wl, cfg.Trades)
		}
		finals[i] = sum / float64(len(orders))
	}

	result := FixedFractionResult{
		WinLossRatio: wl,
		OptimalRisk:  math.NaN(),
		Risks:        risks,
		FinalValues:  finals,
	}
	if idx := stats.ArgMax(finals); idx >= 0 {
		result.OptimalRisk = risks[idx]
	}
	return result
}
