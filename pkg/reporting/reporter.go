package reporting

import (
	"errors"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
)

// ReportingManager routes one analysis run to console, charts and files.
// Every file lands in a single run directory; Written lists them in order.
type ReportingManager struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	charts  *ChartRenderer
	paths   *DefaultPathManager
	config  ReportingConfig

	runID   string
	outDir  string
	written []string
}

// NewReportingManager creates a manager for one analysis run
func NewReportingManager(config ReportingConfig, analysis string) *ReportingManager {
	paths := NewDefaultPathManager(config.OutputDirectory)
	runID := NewRunID()
	return &ReportingManager{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		charts:  NewChartRenderer(),
		paths:   paths,
		config:  config,
		runID:   runID,
		outDir:  paths.GetDefaultOutputDir(analysis, runID),
	}
}

// WithConsole replaces the console reporter
func (m *ReportingManager) WithConsole(c *DefaultConsoleReporter) *ReportingManager {
	m.console = c
	return m
}

// RunID returns the identifier of this run
func (m *ReportingManager) RunID() string { return m.runID }

// OutputDir returns the run directory
func (m *ReportingManager) OutputDir() string { return m.outDir }

// Written returns the files produced so far
func (m *ReportingManager) Written() []string {
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}

// Console exposes the console reporter for ad hoc tables
func (m *ReportingManager) Console() *DefaultConsoleReporter { return m.console }

func (m *ReportingManager) path(name string) string {
	return filepath.Join(m.outDir, name)
}

func (m *ReportingManager) file(name string, write func(path string) error) error {
	path := m.path(name)
	if err := write(path); err != nil {
		return err
	}
	m.written = append(m.written, path)
	return nil
}

// chart renders a PNG. Empty data is logged and skipped so one degenerate
// series does not fail the whole run.
func (m *ReportingManager) chart(name string, draw func(path string) error) error {
	if !m.config.EnableCharts {
		return nil
	}
	err := m.file(name, draw)
	if errors.Is(err, ErrNothingToPlot) {
		logrus.Warnf("⚠️ Skipping chart %s: %v", name, err)
		return nil
	}
	return err
}

func (m *ReportingManager) csvFile(name string, write func(path string) error) error {
	if !m.config.EnableFiles || !m.config.CSVEnabled {
		return nil
	}
	return m.file(name, write)
}

func (m *ReportingManager) xlsxFile(name string, write func(path string) error) error {
	if !m.config.EnableFiles || !m.config.ExcelEnabled {
		return nil
	}
	return m.file(name, write)
}

func (m *ReportingManager) jsonFile(name string, v interface{}) error {
	if !m.config.EnableFiles || !m.config.JSONEnabled {
		return nil
	}
	return m.file(name, func(path string) error { return WriteJSON(v, path) })
}

// ReportThorp prints the Thorp fraction and plots the PnL distribution
func (m *ReportingManager) ReportThorp(res sizing.ThorpResult, pnl []float64) error {
	if m.config.EnableConsole {
		m.console.PrintStats(res.Stats)
		m.console.PrintThorp(res)
	}
	return m.chart("pnl_distribution.png", func(path string) error {
		return m.charts.Histogram(path, "Distribution of Trade PnL", "PnL", pnl)
	})
}

// ReportBetting prints and plots the betting Kelly curve
func (m *ReportingManager) ReportBetting(res sizing.BettingResult) error {
	if m.config.EnableConsole {
		m.console.PrintBetting(res)
	}
	if err := m.csvFile("kelly_curve.csv", func(path string) error {
		return m.csv.WriteColumnsCSV(path, []string{"Avg_Loss", "Kelly_Fraction"}, res.Losses, res.Fraction)
	}); err != nil {
		return err
	}
	return m.chart("kelly_curve.png", func(path string) error {
		return m.charts.BettingCurve(path, res)
	})
}

// ReportFixedFraction prints and plots the fixed fractional risk sweep
func (m *ReportingManager) ReportFixedFraction(res sizing.FixedFractionResult) error {
	if m.config.EnableConsole {
		m.console.PrintFixedFraction(res)
	}
	if err := m.csvFile("fixed_fraction.csv", func(path string) error {
		return m.csv.WriteColumnsCSV(path, []string{"Risk", "Final_Equity"}, res.Risks, res.FinalValues)
	}); err != nil {
		return err
	}
	return m.chart("fixed_fraction.png", func(path string) error {
		return m.charts.FixedFractionCurve(path, res)
	})
}

// ReportEquity prints the equity ratios and plots the curve
func (m *ReportingManager) ReportEquity(rep montecarlo.EquityReport) error {
	if m.config.EnableConsole {
		m.console.PrintEquity(rep)
	}
	return m.chart("equity_curve.png", func(path string) error {
		return m.charts.EquityCurve(path, "Portfolio Equity Curve", rep.Cumulative)
	})
}

// ReportSimulations prints the metric tails and plots the path fan and
// the percentile curve of final returns
func (m *ReportingManager) ReportSimulations(cfg montecarlo.SimConfig, metrics *montecarlo.SimulationMetrics, original []float64) error {
	summaries := montecarlo.Summarize(metrics)
	name := cfg.Sampler.Name()
	if m.config.EnableConsole {
		m.console.PrintSimulationSummary("MONTE CARLO ("+name+")", summaries)
	}
	if err := m.jsonFile("summary.json", NewSimulationSummary(name, cfg.Sims, cfg.Seed, summaries)); err != nil {
		return err
	}

	curve := montecarlo.NewPercentileCurve(metrics.FinalReturns)
	if err := m.csvFile("final_return_percentiles.csv", func(path string) error {
		return m.csv.WriteColumnsCSV(path, []string{"Percentile", "Final_Return"}, curve.Percentiles, curve.Values)
	}); err != nil {
		return err
	}
	if err := m.chart("simulated_paths.png", func(path string) error {
		return m.charts.SimulationFan(path, "Monte Carlo Simulation of Cumulative Portfolio Returns ("+name+")", metrics.Paths, original)
	}); err != nil {
		return err
	}
	return m.chart("final_return_percentiles.png", func(path string) error {
		return m.charts.PercentileCurve(path, curve)
	})
}

// ReportKellySweep prints, saves and plots a Kelly fraction sweep
func (m *ReportingManager) ReportKellySweep(res *montecarlo.SweepResult) error {
	if m.config.EnableConsole {
		m.console.PrintKellySweep(res)
	}
	if err := m.csvFile("kelly_sweep.csv", func(path string) error {
		return m.csv.WriteKellySweepCSV(res, path)
	}); err != nil {
		return err
	}
	if err := m.xlsxFile("kelly_sweep.xlsx", func(path string) error {
		return m.excel.WriteKellySweepXLSX(res, path)
	}); err != nil {
		return err
	}
	if err := m.jsonFile("summary.json", NewKellySweepSummary(res)); err != nil {
		return err
	}
	return m.chart("kelly_sweep.png", func(path string) error {
		return m.charts.KellySweep(path, res)
	})
}

// ReportBacktest prints, saves and plots one rotation backtest
func (m *ReportingManager) ReportBacktest(res *backtest.BacktestResults, ticker, base string) error {
	if m.config.EnableConsole {
		m.console.PrintBacktest(res, ticker)
	}
	if err := m.csvFile("backtest.csv", func(path string) error {
		return m.csv.WriteBacktestCSV(res, path)
	}); err != nil {
		return err
	}
	if err := m.jsonFile("summary.json", NewBacktestSummary(res, ticker, base)); err != nil {
		return err
	}
	if err := m.chart("cumulative_returns.png", func(path string) error {
		return m.charts.CumulativeReturns(path, res, ticker)
	}); err != nil {
		return err
	}
	return m.chart("drawdowns.png", func(path string) error {
		return m.charts.Drawdowns(path, res, ticker)
	})
}

// ReportSweep prints, saves and plots a one-dimensional parameter sweep.
// set writes a swept value into the base parameters for the JSON summary.
func (m *ReportingManager) ReportSweep(analysis, title, param string, base backtest.Params, set func(*backtest.Params, int), points []backtest.SweepPoint) error {
	if m.config.EnableConsole {
		m.console.PrintSweepBest(title, param, points)
	}
	if err := m.csvFile(analysis+".csv", func(path string) error {
		return m.csv.WriteSweepCSV(param, points, path)
	}); err != nil {
		return err
	}
	if err := m.xlsxFile(analysis+".xlsx", func(path string) error {
		return m.excel.WriteSweepsXLSX([]NamedSweep{{Sheet: param, Param: param, Points: points}}, path)
	}); err != nil {
		return err
	}
	if err := m.jsonFile("best.json", NewSweepBest(analysis, base, set, points)); err != nil {
		return err
	}
	return m.chart(analysis+".png", func(path string) error {
		return m.charts.SweepBars(path, title, param, points)
	})
}

// ReportHeatmap prints, saves and plots a Sharpe grid
func (m *ReportingManager) ReportHeatmap(g *backtest.SharpeGrid) error {
	if m.config.EnableConsole {
		m.console.PrintHeatmapBest(g)
	}
	if err := m.csvFile("heatmap.csv", func(path string) error {
		return m.csv.WriteHeatmapCSV(g, path)
	}); err != nil {
		return err
	}
	if err := m.xlsxFile("heatmap.xlsx", func(path string) error {
		return m.excel.WriteHeatmapXLSX(g, path)
	}); err != nil {
		return err
	}
	if err := m.jsonFile("best.json", NewHeatmapBest(g)); err != nil {
		return err
	}
	return m.chart("heatmap.png", func(path string) error {
		return m.charts.Heatmap(path, g)
	})
}

// Finish prints the list of written files
func (m *ReportingManager) Finish() {
	if m.config.EnableConsole {
		m.console.PrintOutputs(m.written)
	}
}
