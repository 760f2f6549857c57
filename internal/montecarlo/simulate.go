package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/ducminhle1904/sizing-lab/pkg/stats"
)

// ErrEmptySample is returned for an empty trade series
var ErrEmptySample = errors.New("empty pnl sample")

// DefaultSimulations is the number of resampled paths per run
const DefaultSimulations = 1000

// SimConfig configures a resampling run
type SimConfig struct {
	Sims      int
	Sampler   Sampler
	Seed      int64
	KeepPaths bool
	RiskFree  float64
}

// SimulationMetrics holds one value per simulated path
type SimulationMetrics struct {
	MaxDrawdowns []float64
	Sharpes      []float64
	Sortinos     []float64
	FinalReturns []float64
	// Paths holds each cumulative curve when KeepPaths is set
	Paths [][]float64
}

// RunSimulations resamples pnl cfg.Sims times and measures every path
func RunSimulations(ctx context.Context, pnl []float64, cfg SimConfig) (*SimulationMetrics, error) {
	if len(pnl) == 0 {
		return nil, ErrEmptySample
	}
	if cfg.Sims <= 0 {
		return nil, fmt.Errorf("simulations must be positive, got %d", cfg.Sims)
	}
	sampler := cfg.Sampler
	if sampler == nil {
		sampler = Bootstrap{}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &SimulationMetrics{
		MaxDrawdowns: make([]float64, cfg.Sims),
		Sharpes:      make([]float64, cfg.Sims),
		Sortinos:     make([]float64, cfg.Sims),
		FinalReturns: make([]float64, cfg.Sims),
	}
	if cfg.KeepPaths {
		m.Paths = make([][]float64, cfg.Sims)
	}

	draw := make([]float64, len(pnl))
	for i := 0; i < cfg.Sims; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sample := sampler.Sample(rng, pnl, draw)
		cum := CumulativeReturns(sample)

		m.MaxDrawdowns[i] = MaxDrawdown(cum)
		m.Sharpes[i] = Sharpe(sample, cfg.RiskFree)
		m.Sortinos[i] = Sortino(sample, cfg.RiskFree)
		m.FinalReturns[i] = cum[len(cum)-1]
		if cfg.KeepPaths {
			m.Paths[i] = cum
		}
	}

	return m, nil
}

// MetricSummary holds the tails and mean of one simulated metric.
// Undefined counts the paths whose metric was NaN (a Sortino with no
// losing trade); they are left out of the tails and the mean.
type MetricSummary struct {
	Name      string
	P5        float64
	P95       float64
	Mean      float64
	Undefined int
}

// Summarize returns the 5th/95th percentiles and means of every metric
func Summarize(m *SimulationMetrics) []MetricSummary {
	summarize := func(name string, values []float64) MetricSummary {
		p := stats.Percentiles(values, 5, 95)
		return MetricSummary{
			Name:      name,
			P5:        p[0],
			P95:       p[1],
			Mean:      stats.NanMean(values),
			Undefined: len(values) - len(stats.DropNaN(values)),
		}
	}
	return []MetricSummary{
		summarize("Max Drawdown", m.MaxDrawdowns),
		summarize("Sharpe", m.Sharpes),
		summarize("Sortino", m.Sortinos),
		summarize("Final Return", m.FinalReturns),
	}
}

// PercentileCurve is the distribution of final returns at percentiles 0..100
type PercentileCurve struct {
	Percentiles []float64
	Values      []float64
}

// NewPercentileCurve evaluates 101 evenly spaced percentiles of the
// defined finals
func NewPercentileCurve(finals []float64) PercentileCurve {
	ps := stats.Linspace(0, 100, 101)
	return PercentileCurve{
		Percentiles: ps,
		Values:      stats.Percentiles(finals, ps...),
	}
}
