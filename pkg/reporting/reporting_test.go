package reporting

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleGrid() *backtest.SharpeGrid {
	return &backtest.SharpeGrid{
		Period: 3,
		Lowers: []int{10, 20, 30},
		Uppers: []int{60, 70},
		Values: [][]float64{{0.4, 0.6}, {math.NaN(), 1.1}, {0.2, -0.3}},
	}
}

func sampleBacktest() *backtest.BacktestResults {
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}
	nan := math.NaN()
	return &backtest.BacktestResults{
		Params:             backtest.DefaultParams(),
		Dates:              dates,
		RSI:                []float64{nan, nan, 40, 20, 80},
		Signal:             []int{0, 0, 0, 1, 0},
		TickerReturns:      []float64{nan, 0.01, -0.02, 0.01, 0.03},
		StrategyReturns:    []float64{nan, 0, 0, 0, 0.03},
		TickerCumulative:   []float64{nan, 0.01, -0.0102, -0.0003, 0.0297},
		StrategyCumulative: []float64{nan, 0, 0, 0, 0.03},
		TickerDrawdown:     []float64{nan, 0, -0.02, -0.0102, 0},
		StrategyDrawdown:   []float64{nan, 0, 0, 0, 0},
		Trades:             1,
		DaysInMarket:       1,
		StrategySharpe:     1.2,
		TickerSharpe:       0.8,
		TotalReturn:        0.03,
		TickerTotalReturn:  0.0297,
		MaxDrawdown:        0,
		TickerMaxDrawdown:  -0.02,
	}
}

func sampleSweep() *montecarlo.SweepResult {
	return &montecarlo.SweepResult{
		Stats:     sizing.Stats{AvgLoss: -0.02},
		OptKelly:  2,
		Threshold: 0.25,
		Fractions: []montecarlo.FractionResult{
			{Fraction: 1, AmountRisked: 2, MedianReturn: 1.5, MedianVariance: 0.1, RuinRate: 0},
			{Fraction: 2, AmountRisked: 4, MedianReturn: 2.5, MedianVariance: 0.5, RuinRate: 0.1},
			{Fraction: 3, AmountRisked: 6, MedianReturn: 2.0, MedianVariance: 1.0, RuinRate: 0.3},
		},
		TotalPaths: 300,
	}
}

func TestNumber_MarshalsNaNAsNull(t *testing.T) {
	data, err := FormatJSON(map[string]Number{"a": Number(math.NaN()), "b": 1.5, "c": Number(math.Inf(1))})
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"a": null`)
	assert.Contains(t, s, `"b": 1.5`)
	assert.Contains(t, s, `"c": null`)
}

func TestPathManager(t *testing.T) {
	p := NewDefaultPathManager("")
	assert.Equal(t, filepath.Join("results", "kelly_sweep_ab12"), p.GetDefaultOutputDir("Kelly Sweep", "ab12"))
	assert.Equal(t, filepath.Join("results", "analysis"), p.GetDefaultOutputDir(" ", ""))

	id := NewRunID()
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, NewRunID())

	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "file.csv")
	require.NoError(t, p.EnsureDirectoryExists(target))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
}

func TestWriteColumnsCSV(t *testing.T) {
	r := NewDefaultCSVReporter()
	path := filepath.Join(t.TempDir(), "out", "cols.csv")

	require.NoError(t, r.WriteColumnsCSV(path, []string{"x", "y"}, []float64{1, 2}, []float64{0.5, math.NaN()}))
	rows := readCSV(t, path)
	assert.Equal(t, [][]string{{"x", "y"}, {"1", "0.5"}, {"2", "NaN"}}, rows)

	assert.Error(t, r.WriteColumnsCSV(path, []string{"x"}, []float64{1}, []float64{2}))
	assert.Error(t, r.WriteColumnsCSV(path, []string{"x", "y"}, []float64{1}, []float64{2, 3}))
}

func TestWriteSweepAndHeatmapCSV(t *testing.T) {
	r := NewDefaultCSVReporter()
	dir := t.TempDir()

	sweepPath := filepath.Join(dir, "sweep.csv")
	require.NoError(t, r.WriteSweepCSV("Lower", []backtest.SweepPoint{{Value: 5, Sharpe: 0.25, Trades: 3}}, sweepPath))
	assert.Equal(t, [][]string{{"Lower", "Sharpe", "Trades"}, {"5", "0.25", "3"}}, readCSV(t, sweepPath))

	heatPath := filepath.Join(dir, "heat.csv")
	require.NoError(t, r.WriteHeatmapCSV(sampleGrid(), heatPath))
	rows := readCSV(t, heatPath)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"20", "70", "1.1"}, rows[4])
}

func TestWriteBacktestAndKellyCSV(t *testing.T) {
	r := NewDefaultCSVReporter()
	dir := t.TempDir()

	btPath := filepath.Join(dir, "bt.csv")
	require.NoError(t, r.WriteBacktestCSV(sampleBacktest(), btPath))
	rows := readCSV(t, btPath)
	require.Len(t, rows, 6)
	assert.Equal(t, "2024-03-04", rows[4][0])
	assert.Equal(t, "1", rows[4][2])

	kPath := filepath.Join(dir, "k.csv")
	require.NoError(t, r.WriteKellySweepCSV(sampleSweep(), kPath))
	rows = readCSV(t, kPath)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2", "4", "2.5", "0.5", "0.1"}, rows[2])
}

func TestWriteHeatmapXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heat.xlsx")
	require.NoError(t, NewDefaultExcelReporter().WriteHeatmapXLSX(sampleGrid(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	sheet := "Sharpe RSI(3)"
	v, err := fx.GetCellValue(sheet, "C3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1.1", v)

	v, err = fx.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Empty(t, v)

	header, err := fx.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "60", header)
}

func TestWriteSweepsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweeps.xlsx")
	sweeps := []NamedSweep{
		{Sheet: "Lower", Param: "Lower", Points: []backtest.SweepPoint{{Value: 5, Sharpe: 0.1}, {Value: 6, Sharpe: 0.4}}},
		{Sheet: "Upper", Param: "Upper", Points: []backtest.SweepPoint{{Value: 55, Sharpe: math.NaN()}}},
	}
	require.NoError(t, NewDefaultExcelReporter().WriteSweepsXLSX(sweeps, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()
	assert.Equal(t, []string{"Lower", "Upper"}, fx.GetSheetList())

	v, err := fx.GetCellValue("Lower", "A3")
	require.NoError(t, err)
	assert.Equal(t, "6", v)

	assert.Error(t, NewDefaultExcelReporter().WriteSweepsXLSX(nil, path))
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleReporterTo(&buf)

	c.PrintBacktest(sampleBacktest(), "QQQ")
	c.PrintKellySweep(sampleSweep())
	c.PrintSweepBest("LOWER SWEEP", "Lower", []backtest.SweepPoint{{Value: 5, Sharpe: math.NaN()}})
	c.PrintHeatmapBest(sampleGrid())

	out := buf.String()
	assert.Contains(t, out, "RATIO RSI BACKTEST (QQQ)")
	assert.Contains(t, out, "3.00%")
	assert.Contains(t, out, "KELLY FRACTION SWEEP")
	assert.Contains(t, out, "no finite Sharpe")
	assert.Contains(t, out, "SHARPE HEATMAP")
}

func TestCharts_WritePNG(t *testing.T) {
	c := NewChartRenderer()
	c.Width, c.Height = 400, 200
	dir := t.TempDir()

	checks := map[string]func(string) error{
		"hist.png": func(p string) error {
			return c.Histogram(p, "PnL", "PnL", []float64{0.01, -0.02, 0.03, math.NaN(), 0.015})
		},
		"sweep.png": func(p string) error { return c.KellySweep(p, sampleSweep()) },
		"cum.png":   func(p string) error { return c.CumulativeReturns(p, sampleBacktest(), "QQQ") },
		"bars.png": func(p string) error {
			return c.SweepBars(p, "Lower", "Lower", []backtest.SweepPoint{{Value: 5, Sharpe: 1}, {Value: 6, Sharpe: math.NaN()}})
		},
		"heatmap.png": func(p string) error { return c.Heatmap(p, sampleGrid()) },
		"fan.png": func(p string) error {
			return c.SimulationFan(p, "fan", [][]float64{{0, 0.1, 0.2}, {0, -0.1, 0.05}}, []float64{0, 0.05, 0.1})
		},
	}
	for name, draw := range checks {
		path := filepath.Join(dir, name)
		require.NoError(t, draw(path), name)
		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}

	assert.ErrorIs(t, c.Histogram(filepath.Join(dir, "x.png"), "x", "x", []float64{math.NaN()}), ErrNothingToPlot)
	assert.Error(t, c.Heatmap(filepath.Join(dir, "y.png"), &backtest.SharpeGrid{Lowers: []int{1}, Uppers: []int{2}, Values: [][]float64{{1}}}))
}

func TestReportingManager_WritesIntoRunDir(t *testing.T) {
	cfg := DefaultReportingConfig()
	cfg.OutputDirectory = t.TempDir()
	cfg.EnableConsole = false

	m := NewReportingManager(cfg, "heatmap")
	require.NoError(t, m.ReportHeatmap(sampleGrid()))

	assert.True(t, strings.HasPrefix(filepath.Base(m.OutputDir()), "heatmap_"+m.RunID()))
	written := m.Written()
	require.Len(t, written, 4)
	for _, p := range written {
		assert.FileExists(t, p)
		assert.Equal(t, m.OutputDir(), filepath.Dir(p))
	}

	data, err := os.ReadFile(filepath.Join(m.OutputDir(), "best.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lower": 20`)
	assert.Contains(t, string(data), `"upper": 70`)
}

func TestReportingManager_DisabledOutputs(t *testing.T) {
	cfg := ReportingConfig{OutputDirectory: t.TempDir()}
	m := NewReportingManager(cfg, "backtest")

	require.NoError(t, m.ReportBacktest(sampleBacktest(), "QQQ", "TLT"))
	assert.Empty(t, m.Written())
	assert.NoDirExists(t, m.OutputDir())
}

func TestNewSweepBest(t *testing.T) {
	base := backtest.Params{Period: 3, Lower: 15, Upper: 70}
	points := []backtest.SweepPoint{{Value: 60, Sharpe: 0.2}, {Value: 80, Sharpe: 0.9, Trades: 4}}
	best := NewSweepBest("sweep_upper", base, func(p *backtest.Params, v int) { p.Upper = float64(v) }, points)

	assert.True(t, best.Found)
	assert.Equal(t, Number(80), best.Upper)
	assert.Equal(t, Number(15), best.Lower)
	assert.Equal(t, 4, best.Trades)
}

func TestSimulationSummary_ReportsUndefinedPaths(t *testing.T) {
	summaries := []montecarlo.MetricSummary{{Name: "Sortino", P5: 1.95, P95: 19.05, Mean: 10.5, Undefined: 317}}

	data, err := FormatJSON(NewSimulationSummary("bootstrap", 1000, 7, summaries))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"undefined": 317`)

	var buf bytes.Buffer
	NewConsoleReporterTo(&buf).PrintSimulationSummary("BOOTSTRAP", summaries)
	assert.Contains(t, buf.String(), "Undefined")
	assert.Contains(t, buf.String(), "317")
}
