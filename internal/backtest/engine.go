// Package backtest runs the RSI rotation strategy on the price ratio of two
// tickers and sweeps its parameters.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/sizing-lab/internal/indicators"
	"github.com/ducminhle1904/sizing-lab/pkg/data"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// Frame is the date-aligned history of a ticker and its base
type Frame struct {
	Ticker    string
	Base      string
	Dates     []time.Time
	TickerAdj []float64
	BaseAdj   []float64
	Ratio     []float64 // TickerAdj / BaseAdj
}

// Len returns the number of aligned rows
func (f *Frame) Len() int {
	return len(f.Dates)
}

// BuildFrame inner-joins two histories on date and computes their ratio
func BuildFrame(ticker, base string, tickerBars, baseBars []types.PriceBar) (*Frame, error) {
	return FrameFromMerged(ticker, base, data.MergeOnDate(tickerBars, baseBars))
}

// FrameFromMerged builds a frame from rows already joined on date
func FrameFromMerged(ticker, base string, merged []data.MergedBar) (*Frame, error) {
	if len(merged) < 2 {
		return nil, fmt.Errorf("%s/%s: need at least 2 common dates, got %d", ticker, base, len(merged))
	}

	f := &Frame{
		Ticker:    ticker,
		Base:      base,
		Dates:     make([]time.Time, len(merged)),
		TickerAdj: make([]float64, len(merged)),
		BaseAdj:   make([]float64, len(merged)),
		Ratio:     make([]float64, len(merged)),
	}
	for i, row := range merged {
		f.Dates[i] = row.Date
		f.TickerAdj[i] = row.Left
		f.BaseAdj[i] = row.Right
		f.Ratio[i] = row.Left / row.Right
	}
	return f, nil
}

// Params are the strategy parameters
type Params struct {
	Period    int
	Lower     float64
	Upper     float64
	Smoothing indicators.Smoothing
}

// DefaultParams returns the strategy defaults
func DefaultParams() Params {
	return Params{
		Period:    3,
		Lower:     30,
		Upper:     70,
		Smoothing: indicators.SmoothingSimple,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	switch {
	case p.Period < 1:
		return fmt.Errorf("RSI period must be at least 1, got %d", p.Period)
	case p.Lower < 0 || p.Upper > 100:
		return fmt.Errorf("thresholds must be within [0, 100], got %g/%g", p.Lower, p.Upper)
	case p.Lower >= p.Upper:
		return fmt.Errorf("lower threshold %g must be below upper threshold %g", p.Lower, p.Upper)
	}
	return nil
}

// BacktestResults holds every series of a run plus its summary statistics
type BacktestResults struct {
	Params Params
	Dates  []time.Time

	RSI    []float64
	Signal []int

	TickerReturns      []float64
	StrategyReturns    []float64
	TickerCumulative   []float64
	StrategyCumulative []float64
	TickerDrawdown     []float64
	StrategyDrawdown   []float64

	Trades            int
	DaysInMarket      int
	StrategySharpe    float64
	TickerSharpe      float64
	TotalReturn       float64
	TickerTotalReturn float64
	MaxDrawdown       float64
	TickerMaxDrawdown float64
}

// Engine evaluates the rotation strategy on a frame
type Engine struct{}

// NewEngine creates a new engine
func NewEngine() *Engine {
	return &Engine{}
}

// Run computes the RSI of the ratio and evaluates the strategy
func (e *Engine) Run(frame *Frame, params Params) *BacktestResults {
	rsi := indicators.NewRSIWithSmoothing(params.Period, params.Smoothing).Series(frame.Ratio)
	return e.RunWithRSI(frame, params, rsi)
}

// RunWithRSI evaluates the strategy with a precomputed RSI series. Threshold
// sweeps reuse one series for every combination.
func (e *Engine) RunWithRSI(frame *Frame, params Params, rsi []float64) *BacktestResults {
	signal := GenerateSignals(rsi, params.Lower, params.Upper)
	tickerRet := PctChange(frame.TickerAdj)
	stratRet := ApplySignal(tickerRet, signal)

	r := &BacktestResults{
		Params:          params,
		Dates:           frame.Dates,
		RSI:             rsi,
		Signal:          signal,
		TickerReturns:   tickerRet,
		StrategyReturns: stratRet,
	}
	r.UpdateMetrics()
	return r
}

// UpdateMetrics derives the cumulative, drawdown and summary fields from
// the return series
func (r *BacktestResults) UpdateMetrics() {
	r.TickerCumulative = CompoundedReturns(r.TickerReturns)
	r.StrategyCumulative = CompoundedReturns(r.StrategyReturns)
	r.TickerDrawdown = DrawdownSeries(r.TickerCumulative)
	r.StrategyDrawdown = DrawdownSeries(r.StrategyCumulative)

	r.Trades = CountTrades(r.Signal)
	r.DaysInMarket = 0
	for _, s := range r.Signal {
		r.DaysInMarket += s
	}

	r.StrategySharpe = AnnualizedSharpe(r.StrategyReturns)
	r.TickerSharpe = AnnualizedSharpe(r.TickerReturns)
	r.TotalReturn = lastFinite(r.StrategyCumulative)
	r.TickerTotalReturn = lastFinite(r.TickerCumulative)
	r.MaxDrawdown = minFinite(r.StrategyDrawdown)
	r.TickerMaxDrawdown = minFinite(r.TickerDrawdown)
}

func lastFinite(x []float64) float64 {
	for i := len(x) - 1; i >= 0; i-- {
		if !math.IsNaN(x[i]) {
			return x[i]
		}
	}
	return math.NaN()
}

func minFinite(x []float64) float64 {
	out := math.NaN()
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v < out {
			out = v
		}
	}
	return out
}
