package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
)

// DefaultCSVReporter writes analysis series as CSV
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

func writeCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteColumnsCSV writes equal length float columns under header
func (r *DefaultCSVReporter) WriteColumnsCSV(path string, header []string, columns ...[]float64) error {
	if len(header) != len(columns) {
		return fmt.Errorf("header has %d names for %d columns", len(header), len(columns))
	}
	n := 0
	for i, c := range columns {
		if i == 0 {
			n = len(c)
		} else if len(c) != n {
			return fmt.Errorf("column %q has %d rows, expected %d", header[i], len(c), n)
		}
	}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = formatFloat(c[i])
		}
		rows[i] = row
	}
	return writeCSV(path, header, rows)
}

// WriteKellySweepCSV writes one row per simulated Kelly fraction
func (r *DefaultCSVReporter) WriteKellySweepCSV(res *montecarlo.SweepResult, path string) error {
	rows := make([][]string, len(res.Fractions))
	for i, f := range res.Fractions {
		rows[i] = []string{
			formatFloat(f.Fraction),
			formatFloat(f.AmountRisked),
			formatFloat(f.MedianReturn),
			formatFloat(f.MedianVariance),
			formatFloat(f.RuinRate),
		}
	}
	return writeCSV(path, []string{"Kelly_Fraction", "Amount_Risked_%", "Median_Return", "Median_Variance", "Ruin_Rate"}, rows)
}

// WriteBacktestCSV writes the daily series of a rotation backtest
func (r *DefaultCSVReporter) WriteBacktestCSV(res *backtest.BacktestResults, path string) error {
	rows := make([][]string, len(res.Dates))
	for i, d := range res.Dates {
		rows[i] = []string{
			d.Format("2006-01-02"),
			formatFloat(res.RSI[i]),
			strconv.Itoa(res.Signal[i]),
			formatFloat(res.TickerReturns[i]),
			formatFloat(res.StrategyReturns[i]),
			formatFloat(res.TickerCumulative[i]),
			formatFloat(res.StrategyCumulative[i]),
			formatFloat(res.TickerDrawdown[i]),
			formatFloat(res.StrategyDrawdown[i]),
		}
	}
	return writeCSV(path, []string{
		"Date", "RSI", "Signal",
		"Ticker_Return", "Strategy_Return",
		"Ticker_Cumulative", "Strategy_Cumulative",
		"Ticker_Drawdown", "Strategy_Drawdown",
	}, rows)
}

// WriteSweepCSV writes the Sharpe ratio of each swept parameter value
func (r *DefaultCSVReporter) WriteSweepCSV(param string, points []backtest.SweepPoint, path string) error {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{strconv.Itoa(p.Value), formatFloat(p.Sharpe), strconv.Itoa(p.Trades)}
	}
	return writeCSV(path, []string{param, "Sharpe", "Trades"}, rows)
}

// WriteHeatmapCSV writes the Sharpe grid in long form
func (r *DefaultCSVReporter) WriteHeatmapCSV(g *backtest.SharpeGrid, path string) error {
	rows := make([][]string, 0, len(g.Lowers)*len(g.Uppers))
	for i, l := range g.Lowers {
		for j, u := range g.Uppers {
			rows = append(rows, []string{strconv.Itoa(l), strconv.Itoa(u), formatFloat(g.Values[i][j])})
		}
	}
	return writeCSV(path, []string{"Lower", "Upper", "Sharpe"}, rows)
}
