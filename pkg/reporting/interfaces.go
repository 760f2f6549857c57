package reporting

import (
	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
)

// ConsoleReporter prints analysis summaries
type ConsoleReporter interface {
	PrintKellySweep(res *montecarlo.SweepResult)
	PrintBacktest(res *backtest.BacktestResults, ticker string)
	PrintSweepBest(title, param string, points []backtest.SweepPoint)
	PrintHeatmapBest(g *backtest.SharpeGrid)
	PrintOutputs(paths []string)
}

// FileReporter writes analysis results to disk
type FileReporter interface {
	WriteKellySweepCSV(res *montecarlo.SweepResult, path string) error
	WriteBacktestCSV(res *backtest.BacktestResults, path string) error
	WriteSweepCSV(param string, points []backtest.SweepPoint, path string) error
	WriteHeatmapCSV(g *backtest.SharpeGrid, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(analysis, runID string) string
	EnsureDirectoryExists(path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle    int
	NumberStyle    int
	PercentStyle   int
	BaseStyle      int
	HighlightStyle int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	EnableFiles     bool
	EnableCharts    bool
	OutputDirectory string
	ExcelEnabled    bool
	CSVEnabled      bool
	JSONEnabled     bool
}

// DefaultReportingConfig enables every output under results/
func DefaultReportingConfig() ReportingConfig {
	return ReportingConfig{
		EnableConsole:   true,
		EnableFiles:     true,
		EnableCharts:    true,
		OutputDirectory: DefaultResultsDir,
		ExcelEnabled:    true,
		CSVEnabled:      true,
		JSONEnabled:     true,
	}
}
