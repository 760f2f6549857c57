package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/sizing-lab/internal/monitoring"
	"github.com/ducminhle1904/sizing-lab/internal/parallel"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
	"github.com/ducminhle1904/sizing-lab/pkg/stats"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

var (
	// ErrNoLosses means the average loss, and so the risk per trade, is undefined
	ErrNoLosses = errors.New("pnl series has no losing trades")
	// ErrNonPositiveKelly means the series has no edge to size
	ErrNonPositiveKelly = errors.New("thorp kelly fraction is not positive")
)

// Sweep defaults
const (
	DefaultGridLow       = 0.01
	DefaultGridHigh      = 2.5
	DefaultSweepSteps    = 100
	DefaultSweepSims     = 100000
	DefaultPathLength    = 150
	DefaultRuinThreshold = 0.25

	sweepAnalysis = "kelly_sweep"
)

// SweepConfig configures RunKellySweep
type SweepConfig struct {
	RiskFree      float64
	Steps         int
	GridLow       float64
	GridHigh      float64
	Sims          int
	PathLength    int
	RuinThreshold float64
	Seed          int64
	Workers       int
	Metrics       *monitoring.Metrics
}

// DefaultSweepConfig returns the defaults of the sweep report
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Steps:         DefaultSweepSteps,
		GridLow:       DefaultGridLow,
		GridHigh:      DefaultGridHigh,
		Sims:          DefaultSweepSims,
		PathLength:    DefaultPathLength,
		RuinThreshold: DefaultRuinThreshold,
	}
}

// Validate checks the sweep parameters
func (c SweepConfig) Validate() error {
	switch {
	case c.Steps <= 0:
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	case c.Sims <= 0:
		return fmt.Errorf("sims must be positive, got %d", c.Sims)
	case c.PathLength <= 0:
		return fmt.Errorf("path length must be positive, got %d", c.PathLength)
	case c.RuinThreshold <= 0 || c.RuinThreshold > 1:
		return fmt.Errorf("ruin threshold must be in (0, 1], got %g", c.RuinThreshold)
	case c.GridLow >= c.GridHigh && c.Steps > 1:
		return fmt.Errorf("grid low %g must be below grid high %g", c.GridLow, c.GridHigh)
	}
	return nil
}

// KellyGrid returns steps multipliers evenly spaced over [lo, hi] scaled by optKelly
func KellyGrid(optKelly float64, steps int, lo, hi float64) []float64 {
	grid := stats.Linspace(lo, hi, steps)
	for i := range grid {
		grid[i] *= optKelly
	}
	return grid
}

// FractionResult aggregates the paths simulated at one Kelly fraction
type FractionResult struct {
	Fraction       float64
	AmountRisked   float64 // percent of equity lost on an average losing trade
	MedianReturn   float64
	MedianVariance float64
	RuinRate       float64
}

// SimulateFraction compounds sims bootstrap paths of size trades at frac.
//
// Each path starts at 1 and multiplies by 1 + frac*pnl per trade. Reaching
// zero is absorbing: the path stops with final 0 and the variance of the
// values recorded before that step. A path is counted as ruined when its
// value falls to threshold times its running peak (peak starts at 1).
func SimulateFraction(rng *rand.Rand, pnl []float64, frac float64, sims, size int, threshold float64) FractionResult {
	finals := make([]float64, sims)
	variances := make([]float64, sims)
	values := make([]float64, 0, size)
	ruined := 0
	draw := func() float64 { return pnl[rng.Intn(len(pnl))] }

	for s := 0; s < sims; s++ {
		var breached bool
		finals[s], variances[s], breached, values = compoundPath(draw, size, frac, threshold, values)
		if breached {
			ruined++
		}
	}

	return FractionResult{
		Fraction:       frac,
		MedianReturn:   stats.Median(finals),
		MedianVariance: stats.Median(variances),
		RuinRate:       float64(ruined) / float64(sims),
	}
}

// compoundPath runs one path of size draws. values is scratch space for the
// recorded portfolio values and is returned for reuse.
func compoundPath(draw func() float64, size int, frac, threshold float64, values []float64) (final, variance float64, breached bool, scratch []float64) {
	values = values[:0]
	portfolio := 1.0
	peak := 1.0

	for k := 0; k < size; k++ {
		portfolio *= 1 + frac*draw()
		if portfolio > peak {
			peak = portfolio
		}
		if portfolio <= threshold*peak {
			breached = true
		}
		if portfolio <= 0 {
			portfolio = 0
			break
		}
		values = append(values, portfolio)
	}

	if len(values) == 0 {
		return 0, 0, breached, values
	}
	return portfolio, stats.PopVariance(values), breached, values
}

// SweepResult is the outcome of RunKellySweep
type SweepResult struct {
	Stats      sizing.Stats
	OptKelly   float64
	Threshold  float64
	Fractions  []FractionResult
	Elapsed    time.Duration
	TotalPaths int
}

// ProgressFunc receives the number of completed and total fractions
type ProgressFunc func(done, total int)

// RunKellySweep simulates every fraction of the Kelly grid. Fraction i uses
// a generator seeded from (cfg.Seed, i) so the result does not depend on
// the worker count.
func RunKellySweep(ctx context.Context, pnl types.PnLSeries, cfg SweepConfig, progress ProgressFunc) (*SweepResult, error) {
	if pnl.Len() == 0 {
		return nil, ErrEmptySample
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := sizing.ComputeStats(pnl)
	if math.IsNaN(st.AvgLoss) {
		return nil, ErrNoLosses
	}
	opt, err := sizing.ThorpKelly(st.Mean, st.Variance, cfg.RiskFree)
	if err != nil {
		return nil, err
	}
	if opt <= 0 {
		return nil, fmt.Errorf("%w: %.4f", ErrNonPositiveKelly, opt)
	}

	grid := KellyGrid(opt, cfg.Steps, cfg.GridLow, cfg.GridHigh)
	values := pnl.Values()
	lossAbs := math.Abs(st.AvgLoss)

	logrus.Debugf("Kelly sweep: f*=%.4f, %d fractions x %d paths x %d trades", opt, len(grid), cfg.Sims, cfg.PathLength)

	start := time.Now()
	done := 0
	evaluate := func(ctx context.Context, job parallel.Job[float64]) (FractionResult, error) {
		if err := ctx.Err(); err != nil {
			return FractionResult{}, err
		}
		began := time.Now()
		rng := rand.New(rand.NewSource(seedFor(cfg.Seed, job.Index)))
		r := SimulateFraction(rng, values, job.Input, cfg.Sims, cfg.PathLength, cfg.RuinThreshold)
		r.AmountRisked = job.Input * lossAbs * 100
		cfg.Metrics.ObserveDuration(sweepAnalysis, time.Since(began))
		cfg.Metrics.RecordPaths(sweepAnalysis, cfg.Sims, int(math.Round(r.RuinRate*float64(cfg.Sims))))
		return r, nil
	}

	results, err := parallel.Map(ctx, cfg.Workers, grid, evaluate, func(parallel.Result[FractionResult]) {
		done++
		cfg.Metrics.SetSweepProgress(sweepAnalysis, done)
		if progress != nil {
			progress(done, len(grid))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("kelly sweep: %w", err)
	}

	return &SweepResult{
		Stats:      st,
		OptKelly:   opt,
		Threshold:  cfg.RuinThreshold,
		Fractions:  results,
		Elapsed:    time.Since(start),
		TotalPaths: len(grid) * cfg.Sims,
	}, nil
}

// AmountRisked returns the x axis of the sweep
func (r *SweepResult) AmountRisked() []float64 {
	out := make([]float64, len(r.Fractions))
	for i, f := range r.Fractions {
		out[i] = f.AmountRisked
	}
	return out
}

// MedianReturns returns the median final value per fraction
func (r *SweepResult) MedianReturns() []float64 {
	out := make([]float64, len(r.Fractions))
	for i, f := range r.Fractions {
		out[i] = f.MedianReturn
	}
	return out
}

// MedianVariances returns the median path variance per fraction
func (r *SweepResult) MedianVariances() []float64 {
	out := make([]float64, len(r.Fractions))
	for i, f := range r.Fractions {
		out[i] = f.MedianVariance
	}
	return out
}

// RuinRates returns the drawdown breach rate per fraction
func (r *SweepResult) RuinRates() []float64 {
	out := make([]float64, len(r.Fractions))
	for i, f := range r.Fractions {
		out[i] = f.RuinRate
	}
	return out
}

// RiskSizeComparison compares the Thorp sizing against the grid point with
// the best median return
type RiskSizeComparison struct {
	VanTharpRisk     float64
	OptimalRisk      float64
	RiskRatio        float64
	ReturnRatio      float64
	VarianceRatio    float64
	VanTharpIndex    int
	OptimalIndex     int
	VanTharpReturn   float64
	OptimalReturn    float64
	VanTharpVariance float64
	OptimalVariance  float64
}

// RiskSizeComparison evaluates the Thorp point at the grid index nearest its
// risk size
func (r *SweepResult) RiskSizeComparison() RiskSizeComparison {
	risked := r.AmountRisked()
	returns := r.MedianReturns()
	variances := r.MedianVariances()

	c := RiskSizeComparison{
		VanTharpRisk: r.OptKelly * math.Abs(r.Stats.AvgLoss) * 100,
		OptimalIndex: stats.ArgMax(returns),
	}
	c.VanTharpIndex = stats.ArgMinAbs(risked, c.VanTharpRisk)
	if c.OptimalIndex < 0 || c.VanTharpIndex < 0 {
		c.OptimalRisk, c.RiskRatio, c.ReturnRatio, c.VarianceRatio = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return c
	}

	c.OptimalRisk = risked[c.OptimalIndex]
	c.OptimalReturn = returns[c.OptimalIndex]
	c.OptimalVariance = variances[c.OptimalIndex]
	c.VanTharpReturn = returns[c.VanTharpIndex]
	c.VanTharpVariance = variances[c.VanTharpIndex]

	c.RiskRatio = c.VanTharpRisk / c.OptimalRisk
	c.ReturnRatio = c.VanTharpReturn / c.OptimalReturn
	c.VarianceRatio = c.VanTharpVariance / c.OptimalVariance
	return c
}

// NormalizedMetrics are the sweep curves scaled by their maxima
type NormalizedMetrics struct {
	AmountRisked []float64
	Returns      []float64
	Variances    []float64
	RuinRates    []float64
}

// Normalized divides median returns and variances by their maxima
func (r *SweepResult) Normalized() NormalizedMetrics {
	returns := r.MedianReturns()
	variances := r.MedianVariances()
	return NormalizedMetrics{
		AmountRisked: r.AmountRisked(),
		Returns:      stats.Scale(returns, stats.MaxFinite(returns)),
		Variances:    stats.Scale(variances, stats.MaxFinite(variances)),
		RuinRates:    r.RuinRates(),
	}
}
