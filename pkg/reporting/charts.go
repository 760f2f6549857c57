package reporting

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
	"github.com/ducminhle1904/sizing-lab/pkg/stats"
)

// ErrNothingToPlot is returned when a chart has no finite data
var ErrNothingToPlot = errors.New("no finite values to plot")

const (
	defaultChartWidth  = 14 * vg.Inch
	defaultChartHeight = 7 * vg.Inch
	defaultHistBins    = 30
	defaultFanPaths    = 200
)

var (
	fanColor    = color.RGBA{R: 120, G: 120, B: 120, A: 60}
	markerColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// ChartRenderer draws analysis charts to PNG files
type ChartRenderer struct {
	Width       vg.Length
	Height      vg.Length
	HistBins    int
	MaxFanPaths int
}

// NewChartRenderer returns a renderer with 14x7 inch canvases
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{
		Width:       defaultChartWidth,
		Height:      defaultChartHeight,
		HistBins:    defaultHistBins,
		MaxFanPaths: defaultFanPaths,
	}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func (c *ChartRenderer) save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := p.Save(c.Width, c.Height, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

// finiteXYs pairs xs and ys, dropping points where either is NaN or Inf
func finiteXYs(xs, ys []float64) plotter.XYs {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	out := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(xs[i]) && isFinite(ys[i]) {
			out = append(out, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	return out
}

func indexXYs(ys []float64) plotter.XYs {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	return finiteXYs(xs, ys)
}

func dateXYs(dates []time.Time, ys []float64) plotter.XYs {
	xs := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = float64(d.Unix())
	}
	return finiteXYs(xs, ys)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func addLine(p *plot.Plot, label string, xys plotter.XYs, col color.Color, width vg.Length, dashed bool) error {
	if len(xys) == 0 {
		return nil
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.LineStyle.Color = col
	l.LineStyle.Width = width
	if dashed {
		l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	}
	p.Add(l)
	if label != "" {
		p.Legend.Add(label, l)
	}
	return nil
}

// addVLine draws a vertical marker spanning the current y range of p
func addVLine(p *plot.Plot, label string, x float64, col color.Color) error {
	if !isFinite(x) {
		return nil
	}
	return addLine(p, label, plotter.XYs{{X: x, Y: p.Y.Min}, {X: x, Y: p.Y.Max}}, col, vg.Points(1.5), true)
}

// Histogram draws the distribution of values with mean and +/-1 sd markers
func (c *ChartRenderer) Histogram(path, title, xLabel string, values []float64) error {
	finite := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ErrNothingToPlot
	}

	p := newPlot(title, xLabel, "Frequency")
	h, err := plotter.NewHist(finite, c.HistBins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)

	mean := stats.Mean(finite)
	sd := stats.PopStdDev(finite)
	if err := addVLine(p, fmt.Sprintf("Mean %.4f", mean), mean, plotutil.Color(1)); err != nil {
		return err
	}
	if err := addVLine(p, fmt.Sprintf("+/-1 SD %.4f", sd), mean+sd, plotutil.Color(2)); err != nil {
		return err
	}
	if err := addVLine(p, "", mean-sd, plotutil.Color(2)); err != nil {
		return err
	}
	return c.save(p, path)
}

// BettingCurve draws f = p/a - q/b against the average loss a
func (c *ChartRenderer) BettingCurve(path string, res sizing.BettingResult) error {
	xys := finiteXYs(res.Losses, res.Fraction)
	if len(xys) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot("Kelly Criterion (betting)", "Average loss per trade", "Kelly fraction")
	if err := addLine(p, "f", xys, plotutil.Color(0), vg.Points(2), false); err != nil {
		return err
	}
	if err := addVLine(p, fmt.Sprintf("Avg loss %.4f", res.AvgLoss), res.AvgLoss, markerColor); err != nil {
		return err
	}
	return c.save(p, path)
}

// FixedFractionCurve draws final equity against the fraction risked
func (c *ChartRenderer) FixedFractionCurve(path string, res sizing.FixedFractionResult) error {
	risks := stats.Scale(res.Risks, 0.01)
	xys := finiteXYs(risks, res.FinalValues)
	if len(xys) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot(fmt.Sprintf("Fixed fractional sizing (W/L %.2f)", res.WinLossRatio), "Risk per trade (%)", "Final equity")
	if err := addLine(p, "Final equity", xys, plotutil.Color(0), vg.Points(2), false); err != nil {
		return err
	}
	if err := addVLine(p, fmt.Sprintf("Optimal %.2f%%", res.OptimalRisk*100), res.OptimalRisk*100, markerColor); err != nil {
		return err
	}
	return c.save(p, path)
}

// EquityCurve draws a cumulative PnL curve against trade number
func (c *ChartRenderer) EquityCurve(path, title string, cum []float64) error {
	xys := indexXYs(cum)
	if len(xys) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot(title, "Trade", "Cumulative PnL")
	if err := addLine(p, "Equity", xys, plotutil.Color(0), vg.Points(2), false); err != nil {
		return err
	}
	return c.save(p, path)
}

// SimulationFan draws up to MaxFanPaths simulated curves behind the original
func (c *ChartRenderer) SimulationFan(path, title string, paths [][]float64, original []float64) error {
	if len(paths) == 0 && len(original) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot(title, "Trade", "Cumulative PnL")
	limit := len(paths)
	if c.MaxFanPaths > 0 && limit > c.MaxFanPaths {
		limit = c.MaxFanPaths
	}
	for i := 0; i < limit; i++ {
		label := ""
		if i == 0 {
			label = "Simulated"
		}
		if err := addLine(p, label, indexXYs(paths[i]), fanColor, vg.Points(0.5), false); err != nil {
			return err
		}
	}
	if err := addLine(p, "Original", indexXYs(original), markerColor, vg.Points(2), false); err != nil {
		return err
	}
	return c.save(p, path)
}

// PercentileCurve draws simulated final returns by percentile
func (c *ChartRenderer) PercentileCurve(path string, curve montecarlo.PercentileCurve) error {
	xys := finiteXYs(curve.Percentiles, curve.Values)
	if len(xys) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot("Final return by percentile", "Percentile", "Final return")
	if err := addLine(p, "Final return", xys, plotutil.Color(0), vg.Points(2), false); err != nil {
		return err
	}
	return c.save(p, path)
}

// KellySweep draws the normalised sweep curves against amount risked with
// markers at the Van Tharp and maximum return risk sizes
func (c *ChartRenderer) KellySweep(path string, res *montecarlo.SweepResult) error {
	n := res.Normalized()
	cmp := res.RiskSizeComparison()

	p := newPlot("Kelly fraction sweep", "Amount risked per trade (%)", "Normalised value")
	series := []struct {
		label string
		ys    []float64
	}{
		{"Median return", n.Returns},
		{"Median variance", n.Variances},
		{"Ruin rate", n.RuinRates},
	}
	plotted := 0
	for i, s := range series {
		xys := finiteXYs(n.AmountRisked, s.ys)
		plotted += len(xys)
		if err := addLine(p, s.label, xys, plotutil.Color(i), vg.Points(2), false); err != nil {
			return err
		}
	}
	if plotted == 0 {
		return ErrNothingToPlot
	}
	if err := addVLine(p, fmt.Sprintf("Van Tharp %.2f%%", cmp.VanTharpRisk), cmp.VanTharpRisk, plotutil.Color(3)); err != nil {
		return err
	}
	if err := addVLine(p, fmt.Sprintf("Max return %.2f%%", cmp.OptimalRisk), cmp.OptimalRisk, markerColor); err != nil {
		return err
	}
	return c.save(p, path)
}

// CumulativeReturns draws strategy against buy and hold of the ticker
func (c *ChartRenderer) CumulativeReturns(path string, res *backtest.BacktestResults, ticker string) error {
	return c.datedPair(path, "Cumulative returns", "Cumulative return", res, ticker, res.StrategyCumulative, res.TickerCumulative)
}

// Drawdowns draws the drawdown series of strategy and ticker
func (c *ChartRenderer) Drawdowns(path string, res *backtest.BacktestResults, ticker string) error {
	return c.datedPair(path, "Drawdowns", "Drawdown", res, ticker, res.StrategyDrawdown, res.TickerDrawdown)
}

func (c *ChartRenderer) datedPair(path, title, yLabel string, res *backtest.BacktestResults, ticker string, strategy, hold []float64) error {
	s := dateXYs(res.Dates, strategy)
	h := dateXYs(res.Dates, hold)
	if len(s) == 0 && len(h) == 0 {
		return ErrNothingToPlot
	}
	p := newPlot(fmt.Sprintf("%s: RSI(%d) %g/%g on %s ratio", title, res.Params.Period, res.Params.Lower, res.Params.Upper, ticker), "Date", yLabel)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	if err := addLine(p, "Strategy", s, plotutil.Color(0), vg.Points(1.5), false); err != nil {
		return err
	}
	if err := addLine(p, ticker, h, plotutil.Color(1), vg.Points(1.5), false); err != nil {
		return err
	}
	return c.save(p, path)
}

// SweepBars draws one Sharpe bar per swept parameter value
func (c *ChartRenderer) SweepBars(path, title, param string, points []backtest.SweepPoint) error {
	if len(points) == 0 {
		return ErrNothingToPlot
	}
	values := make(plotter.Values, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		labels[i] = strconv.Itoa(pt.Value)
		if isFinite(pt.Sharpe) {
			values[i] = pt.Sharpe
		}
	}

	p := newPlot(title, param, "Sharpe ratio")
	width := vg.Points(math.Max(2, 700/float64(len(points))))
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	return c.save(p, path)
}

// sharpeGridXYZ exposes a SharpeGrid with uppers on x and lowers on y
type sharpeGridXYZ struct {
	g *backtest.SharpeGrid
}

func (s sharpeGridXYZ) Dims() (c, r int)   { return len(s.g.Uppers), len(s.g.Lowers) }
func (s sharpeGridXYZ) Z(c, r int) float64 { return s.g.Values[r][c] }
func (s sharpeGridXYZ) X(c int) float64    { return float64(s.g.Uppers[c]) }
func (s sharpeGridXYZ) Y(r int) float64    { return float64(s.g.Lowers[r]) }

// Heatmap draws the Sharpe grid with a diverging blue-red palette
func (c *ChartRenderer) Heatmap(path string, g *backtest.SharpeGrid) error {
	if len(g.Lowers) < 2 || len(g.Uppers) < 2 {
		return fmt.Errorf("heatmap needs at least 2x2 cells, got %dx%d", len(g.Lowers), len(g.Uppers))
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range g.Values {
		for _, v := range row {
			if isFinite(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return ErrNothingToPlot
	}
	if lo == hi {
		hi = lo + 1
	}

	lower, upper, best := g.Best()
	p := newPlot(fmt.Sprintf("Sharpe ratio, RSI(%d): best %.2f at %d/%d", g.Period, best, lower, upper), "Upper threshold", "Lower threshold")
	hm := plotter.NewHeatMap(sharpeGridXYZ{g}, moreland.SmoothBlueRed().Palette(255))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent
	p.Add(hm)
	return c.save(p, path)
}
