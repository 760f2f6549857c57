package reporting

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
	"github.com/ducminhle1904/sizing-lab/pkg/stats"
)

// DefaultConsoleReporter renders analysis scalars as tables
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a console reporter writing to stdout
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w
func NewConsoleReporterTo(w io.Writer) *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: w}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func (r *DefaultConsoleReporter) render(t table.Writer) {
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 14, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(r.out)
}

// PrintStats prints the moments of a PnL series
func (r *DefaultConsoleReporter) PrintStats(s sizing.Stats) {
	t := r.newTable("PNL STATISTICS")
	t.AppendRows([]table.Row{
		{"🔢 Trades", s.Trades},
		{"📊 Mean", num(s.Mean, 6)},
		{"📊 Variance", num(s.Variance, 6)},
		{"📊 Std Dev", num(s.StdDev, 6)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"✅ Avg Win", num(s.AvgWin, 6)},
		{"❌ Avg Loss", num(s.AvgLoss, 6)},
		{"🎯 Win Probability", pct(s.WinProb)},
		{"🎯 Loss Probability", pct(s.LossProb)},
	})
	r.render(t)
}

// PrintThorp prints the Thorp Kelly fraction
func (r *DefaultConsoleReporter) PrintThorp(res sizing.ThorpResult) {
	t := r.newTable("THORP KELLY")
	t.AppendRows([]table.Row{
		{"📊 Mean", num(res.Stats.Mean, 6)},
		{"📊 Variance", num(res.Stats.Variance, 6)},
		{"🏦 Risk-free Rate", num(res.RiskFree, 4)},
		{"💰 Kelly Fraction", num(res.Fraction, 4)},
	})
	r.render(t)
}

// PrintBetting prints the inputs of the betting Kelly curve
func (r *DefaultConsoleReporter) PrintBetting(res sizing.BettingResult) {
	t := r.newTable("BETTING KELLY")
	t.AppendRows([]table.Row{
		{"🎯 Win Probability", pct(res.WinProb)},
		{"🎯 Loss Probability", pct(res.LossProb)},
		{"✅ Avg Win", num(res.AvgWin, 6)},
		{"❌ Avg Loss", num(res.AvgLoss, 6)},
		{"💰 f at Avg Loss", num(res.AtAvgLoss, 4)},
	})
	r.render(t)
}

// PrintFixedFraction prints the fixed fractional risk optimum
func (r *DefaultConsoleReporter) PrintFixedFraction(res sizing.FixedFractionResult) {
	t := r.newTable("FIXED FRACTION")
	best := stats.MaxFinite(res.FinalValues)
	t.AppendRows([]table.Row{
		{"⚖️ Win/Loss Ratio", num(res.WinLossRatio, 4)},
		{"🎯 Optimal Risk", pct(res.OptimalRisk)},
		{"💰 Final Equity", num(best, 4)},
	})
	r.render(t)
}

// PrintEquity prints the ratios of the recorded trade order
func (r *DefaultConsoleReporter) PrintEquity(rep montecarlo.EquityReport) {
	t := r.newTable("EQUITY CURVE")
	t.AppendRows([]table.Row{
		{"📈 Final Return", num(rep.FinalReturn, 4)},
		{"📉 Max Drawdown", num(rep.MaxDrawdown, 4)},
		{"📊 Sharpe Ratio", num(rep.Sharpe, 4)},
		{"📊 Sortino Ratio", num(rep.Sortino, 4)},
	})
	r.render(t)
}

// PrintSimulationSummary prints the percentile tails of simulated metrics
func (r *DefaultConsoleReporter) PrintSimulationSummary(title string, summaries []montecarlo.MetricSummary) {
	t := r.newTable(title)
	t.AppendHeader(table.Row{"Metric", "5th Pct", "95th Pct", "Mean", "Undefined"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Name, num(s.P5, 4), num(s.P95, 4), num(s.Mean, 4), s.Undefined})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

// PrintKellySweep prints the sweep inputs and the risk size comparison
func (r *DefaultConsoleReporter) PrintKellySweep(res *montecarlo.SweepResult) {
	c := res.RiskSizeComparison()
	t := r.newTable("KELLY FRACTION SWEEP")
	t.AppendRows([]table.Row{
		{"💰 Optimal Kelly", num(res.OptKelly, 4)},
		{"❌ Avg Loss", num(res.Stats.AvgLoss, 6)},
		{"🚨 Ruin Threshold", pct(res.Threshold)},
		{"🔢 Paths Simulated", res.TotalPaths},
		{"⏱️ Elapsed", res.Elapsed.Round(1e6).String()},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🎯 Van Tharp Risk %", num(c.VanTharpRisk, 3)},
		{"🎯 Max Return Risk %", num(c.OptimalRisk, 3)},
		{"⚖️ Risk Size Ratio", num(c.RiskRatio, 3)},
		{"⚖️ Return Ratio", num(c.ReturnRatio, 3)},
		{"⚖️ Variance Ratio", num(c.VarianceRatio, 3)},
	})
	r.render(t)
}

// PrintBacktest prints the summary of a rotation backtest
func (r *DefaultConsoleReporter) PrintBacktest(res *backtest.BacktestResults, ticker string) {
	t := r.newTable(fmt.Sprintf("RATIO RSI BACKTEST (%s)", ticker))
	t.AppendRows([]table.Row{
		{"⚙️ RSI Period", res.Params.Period},
		{"⚙️ Lower / Upper", fmt.Sprintf("%g / %g", res.Params.Lower, res.Params.Upper)},
		{"🔄 Trades", res.Trades},
		{"📅 Days in Market", res.DaysInMarket},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"📈 Strategy Return", pct(res.TotalReturn)},
		{"📈 " + ticker + " Return", pct(res.TickerTotalReturn)},
		{"📉 Strategy Max DD", pct(res.MaxDrawdown)},
		{"📉 " + ticker + " Max DD", pct(res.TickerMaxDrawdown)},
		{"📊 Strategy Sharpe", num(res.StrategySharpe, 3)},
		{"📊 " + ticker + " Sharpe", num(res.TickerSharpe, 3)},
	})
	r.render(t)
}

// PrintSweepBest prints the best point of a one-dimensional sweep
func (r *DefaultConsoleReporter) PrintSweepBest(title, param string, points []backtest.SweepPoint) {
	t := r.newTable(title)
	best, ok := backtest.BestPoint(points)
	if !ok {
		t.AppendRow(table.Row{"⚠️ Best " + param, "no finite Sharpe"})
		r.render(t)
		return
	}
	t.AppendRows([]table.Row{
		{"🔢 Points", len(points)},
		{"🎯 Best " + param, best.Value},
		{"📊 Sharpe", num(best.Sharpe, 3)},
		{"🔄 Trades", best.Trades},
	})
	r.render(t)
}

// PrintHeatmapBest prints the best cell of a Sharpe grid
func (r *DefaultConsoleReporter) PrintHeatmapBest(g *backtest.SharpeGrid) {
	lower, upper, sharpe := g.Best()
	t := r.newTable("SHARPE HEATMAP")
	t.AppendRows([]table.Row{
		{"⚙️ RSI Period", g.Period},
		{"🔢 Cells", len(g.Lowers) * len(g.Uppers)},
	})
	if math.IsNaN(sharpe) {
		t.AppendRow(table.Row{"⚠️ Best Cell", "no finite Sharpe"})
	} else {
		t.AppendRows([]table.Row{
			{"🎯 Best Lower", lower},
			{"🎯 Best Upper", upper},
			{"📊 Sharpe", num(sharpe, 3)},
		})
	}
	r.render(t)
}

// PrintOutputs lists the files written by a run
func (r *DefaultConsoleReporter) PrintOutputs(paths []string) {
	if len(paths) == 0 {
		return
	}
	t := r.newTable("OUTPUT FILES")
	for _, p := range paths {
		t.AppendRow(table.Row{"📁", p})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
