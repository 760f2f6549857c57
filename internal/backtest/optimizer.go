package backtest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ducminhle1904/sizing-lab/internal/indicators"
	"github.com/ducminhle1904/sizing-lab/internal/monitoring"
	"github.com/ducminhle1904/sizing-lab/internal/parallel"
)

// Sweep ranges and fixed parameters of the stock reports
const (
	DefaultLowerStart    = 5
	DefaultLowerEnd      = 50
	DefaultUpperStart    = 55
	DefaultUpperEnd      = 95
	DefaultLookbackStart = 1
	DefaultLookbackEnd   = 20

	DefaultSweepPeriod = 3
	DefaultFixedLower  = 15
	DefaultFixedUpper  = 70
)

// SweepPoint is the outcome of one parameter value
type SweepPoint struct {
	Value  int
	Sharpe float64
	Trades int
}

// SharpeGrid holds Sharpe ratios over lower (rows) x upper (columns)
type SharpeGrid struct {
	Period int
	Lowers []int
	Uppers []int
	Values [][]float64
}

// Best returns the cell with the highest finite Sharpe ratio
func (g *SharpeGrid) Best() (lower, upper int, sharpe float64) {
	sharpe = math.NaN()
	for i, row := range g.Values {
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(sharpe) || v > sharpe {
				lower, upper, sharpe = g.Lowers[i], g.Uppers[j], v
			}
		}
	}
	return lower, upper, sharpe
}

// BestPoint returns the point with the highest finite Sharpe ratio
func BestPoint(points []SweepPoint) (SweepPoint, bool) {
	best := -1
	for i, p := range points {
		if math.IsNaN(p.Sharpe) {
			continue
		}
		if best < 0 || p.Sharpe > points[best].Sharpe {
			best = i
		}
	}
	if best < 0 {
		return SweepPoint{}, false
	}
	return points[best], true
}

// IntRange returns lo..hi inclusive
func IntRange(lo, hi int) []int {
	if hi < lo {
		return []int{}
	}
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

// ParameterOptimizer sweeps strategy parameters over one frame
type ParameterOptimizer struct {
	engine   *Engine
	frame    *Frame
	base     Params
	workers  int
	metrics  *monitoring.Metrics
	progress func(done, total int)

	mu       sync.Mutex
	rsiCache map[int][]float64
}

// NewParameterOptimizer creates an optimizer. base supplies the parameters
// that a sweep holds fixed.
func NewParameterOptimizer(frame *Frame, base Params, workers int) *ParameterOptimizer {
	return &ParameterOptimizer{
		engine:   NewEngine(),
		frame:    frame,
		base:     base,
		workers:  workers,
		rsiCache: make(map[int][]float64),
	}
}

// WithMetrics records sweep progress and timings
func (o *ParameterOptimizer) WithMetrics(m *monitoring.Metrics) *ParameterOptimizer {
	o.metrics = m
	return o
}

// WithProgress reports completed grid points
func (o *ParameterOptimizer) WithProgress(fn func(done, total int)) *ParameterOptimizer {
	o.progress = fn
	return o
}

// rsiFor returns the RSI series for period, computing it once
func (o *ParameterOptimizer) rsiFor(period int) []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if rsi, ok := o.rsiCache[period]; ok {
		return rsi
	}
	rsi := indicators.NewRSIWithSmoothing(period, o.base.Smoothing).Series(o.frame.Ratio)
	o.rsiCache[period] = rsi
	return rsi
}

func (o *ParameterOptimizer) evaluate(ctx context.Context, analysis string, params []Params) ([]*BacktestResults, error) {
	// threshold pairs are not required to be ordered inside a grid
	for _, p := range params {
		if p.Period < 1 {
			return nil, fmt.Errorf("RSI period must be at least 1, got %d", p.Period)
		}
	}

	done := 0
	fn := func(ctx context.Context, job parallel.Job[Params]) (*BacktestResults, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		r := o.engine.RunWithRSI(o.frame, job.Input, o.rsiFor(job.Input.Period))
		o.metrics.ObserveDuration(analysis, time.Since(start))
		return r, nil
	}

	return parallel.Map(ctx, o.workers, params, fn, func(parallel.Result[*BacktestResults]) {
		done++
		o.metrics.SetSweepProgress(analysis, done)
		if o.progress != nil {
			o.progress(done, len(params))
		}
	})
}

func (o *ParameterOptimizer) sweep(ctx context.Context, analysis string, values []int, set func(*Params, int)) ([]SweepPoint, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty range", analysis)
	}

	params := make([]Params, len(values))
	for i, v := range values {
		p := o.base
		set(&p, v)
		params[i] = p
	}

	results, err := o.evaluate(ctx, analysis, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", analysis, err)
	}

	points := make([]SweepPoint, len(values))
	for i, r := range results {
		points[i] = SweepPoint{Value: values[i], Sharpe: r.StrategySharpe, Trades: r.Trades}
	}
	return points, nil
}

// SweepLower evaluates every lower threshold in lo..hi
func (o *ParameterOptimizer) SweepLower(ctx context.Context, lo, hi int) ([]SweepPoint, error) {
	return o.sweep(ctx, "sweep_lower", IntRange(lo, hi), func(p *Params, v int) { p.Lower = float64(v) })
}

// SweepUpper evaluates every upper threshold in lo..hi
func (o *ParameterOptimizer) SweepUpper(ctx context.Context, lo, hi int) ([]SweepPoint, error) {
	return o.sweep(ctx, "sweep_upper", IntRange(lo, hi), func(p *Params, v int) { p.Upper = float64(v) })
}

// SweepLookback evaluates every RSI period in lo..hi
func (o *ParameterOptimizer) SweepLookback(ctx context.Context, lo, hi int) ([]SweepPoint, error) {
	return o.sweep(ctx, "sweep_lookback", IntRange(lo, hi), func(p *Params, v int) { p.Period = v })
}

// Heatmap evaluates every lower x upper combination at the base period
func (o *ParameterOptimizer) Heatmap(ctx context.Context, lowers, uppers []int) (*SharpeGrid, error) {
	if len(lowers) == 0 || len(uppers) == 0 {
		return nil, fmt.Errorf("heatmap: empty range")
	}

	params := make([]Params, 0, len(lowers)*len(uppers))
	for _, l := range lowers {
		for _, u := range uppers {
			p := o.base
			p.Lower, p.Upper = float64(l), float64(u)
			params = append(params, p)
		}
	}

	results, err := o.evaluate(ctx, "heatmap", params)
	if err != nil {
		return nil, fmt.Errorf("heatmap: %w", err)
	}

	grid := &SharpeGrid{
		Period: o.base.Period,
		Lowers: lowers,
		Uppers: uppers,
		Values: make([][]float64, len(lowers)),
	}
	for i := range lowers {
		grid.Values[i] = make([]float64, len(uppers))
		for j := range uppers {
			grid.Values[i][j] = results[i*len(uppers)+j].StrategySharpe
		}
	}
	return grid, nil
}
