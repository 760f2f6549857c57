package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
)

// Number is a float64 that encodes NaN and Inf as JSON null
type Number float64

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// KellySweepSummary is the JSON summary of a Kelly sweep
type KellySweepSummary struct {
	OptimalKelly  Number `json:"optimal_kelly"`
	AvgLoss       Number `json:"avg_loss"`
	RuinThreshold Number `json:"ruin_threshold"`
	Fractions     int    `json:"fractions"`
	TotalPaths    int    `json:"total_paths"`
	VanTharpRisk  Number `json:"van_tharp_risk_pct"`
	OptimalRisk   Number `json:"max_return_risk_pct"`
	RiskRatio     Number `json:"risk_size_ratio"`
	ReturnRatio   Number `json:"return_ratio"`
	VarianceRatio Number `json:"variance_ratio"`
}

// NewKellySweepSummary summarises res
func NewKellySweepSummary(res *montecarlo.SweepResult) KellySweepSummary {
	c := res.RiskSizeComparison()
	return KellySweepSummary{
		OptimalKelly:  Number(res.OptKelly),
		AvgLoss:       Number(res.Stats.AvgLoss),
		RuinThreshold: Number(res.Threshold),
		Fractions:     len(res.Fractions),
		TotalPaths:    res.TotalPaths,
		VanTharpRisk:  Number(c.VanTharpRisk),
		OptimalRisk:   Number(c.OptimalRisk),
		RiskRatio:     Number(c.RiskRatio),
		ReturnRatio:   Number(c.ReturnRatio),
		VarianceRatio: Number(c.VarianceRatio),
	}
}

// BacktestSummary is the JSON summary of a rotation backtest
type BacktestSummary struct {
	Ticker            string `json:"ticker"`
	Base              string `json:"base"`
	Period            int    `json:"period"`
	Lower             Number `json:"lower"`
	Upper             Number `json:"upper"`
	Smoothing         string `json:"smoothing"`
	Trades            int    `json:"trades"`
	DaysInMarket      int    `json:"days_in_market"`
	TotalReturn       Number `json:"total_return"`
	TickerTotalReturn Number `json:"ticker_total_return"`
	MaxDrawdown       Number `json:"max_drawdown"`
	TickerMaxDrawdown Number `json:"ticker_max_drawdown"`
	Sharpe            Number `json:"sharpe"`
	TickerSharpe      Number `json:"ticker_sharpe"`
}

// NewBacktestSummary summarises res
func NewBacktestSummary(res *backtest.BacktestResults, ticker, base string) BacktestSummary {
	return BacktestSummary{
		Ticker:            ticker,
		Base:              base,
		Period:            res.Params.Period,
		Lower:             Number(res.Params.Lower),
		Upper:             Number(res.Params.Upper),
		Smoothing:         string(res.Params.Smoothing),
		Trades:            res.Trades,
		DaysInMarket:      res.DaysInMarket,
		TotalReturn:       Number(res.TotalReturn),
		TickerTotalReturn: Number(res.TickerTotalReturn),
		MaxDrawdown:       Number(res.MaxDrawdown),
		TickerMaxDrawdown: Number(res.TickerMaxDrawdown),
		Sharpe:            Number(res.StrategySharpe),
		TickerSharpe:      Number(res.TickerSharpe),
	}
}

// BestParams records the best point of a sweep or heatmap
type BestParams struct {
	Analysis string `json:"analysis"`
	Period   int    `json:"period"`
	Lower    Number `json:"lower"`
	Upper    Number `json:"upper"`
	Sharpe   Number `json:"sharpe"`
	Trades   int    `json:"trades,omitempty"`
	Found    bool   `json:"found"`
}

// NewSweepBest fills the swept parameter of base with the best point
func NewSweepBest(analysis string, base backtest.Params, set func(*backtest.Params, int), points []backtest.SweepPoint) BestParams {
	best, ok := backtest.BestPoint(points)
	out := BestParams{Analysis: analysis, Found: ok, Sharpe: Number(math.NaN())}
	if ok {
		set(&base, best.Value)
		out.Sharpe = Number(best.Sharpe)
		out.Trades = best.Trades
	}
	out.Period, out.Lower, out.Upper = base.Period, Number(base.Lower), Number(base.Upper)
	return out
}

// NewHeatmapBest records the best cell of g
func NewHeatmapBest(g *backtest.SharpeGrid) BestParams {
	lower, upper, sharpe := g.Best()
	return BestParams{
		Analysis: "heatmap",
		Period:   g.Period,
		Lower:    Number(lower),
		Upper:    Number(upper),
		Sharpe:   Number(sharpe),
		Found:    !math.IsNaN(sharpe),
	}
}

// MetricJSON is one MetricSummary row
type MetricJSON struct {
	Name string `json:"name"`
	P5   Number `json:"p5"`
	P95  Number `json:"p95"`
	Mean Number `json:"mean"`
	// Undefined is the number of NaN paths left out of the tails and mean
	Undefined int `json:"undefined"`
}

// SimulationSummary is the JSON summary of a resampling run
type SimulationSummary struct {
	Sampler string       `json:"sampler"`
	Sims    int          `json:"sims"`
	Seed    int64        `json:"seed"`
	Metrics []MetricJSON `json:"metrics"`
}

// NewSimulationSummary converts metric summaries for JSON output
func NewSimulationSummary(sampler string, sims int, seed int64, summaries []montecarlo.MetricSummary) SimulationSummary {
	out := SimulationSummary{Sampler: sampler, Sims: sims, Seed: seed}
	for _, s := range summaries {
		out.Metrics = append(out.Metrics, MetricJSON{
			Name:      s.Name,
			P5:        Number(s.P5),
			P95:       Number(s.P95),
			Mean:      Number(s.Mean),
			Undefined: s.Undefined,
		})
	}
	return out
}

// FormatJSON returns v as indented JSON
func FormatJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// PrintJSON prints v as indented JSON
func PrintJSON(v interface{}) {
	data, err := FormatJSON(v)
	if err != nil {
		fmt.Printf("⚠️ failed to encode JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// WriteJSON writes v as indented JSON to path
func WriteJSON(v interface{}, path string) error {
	data, err := FormatJSON(v)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
