package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
)

// DefaultExcelReporter writes sweeps and grids as XLSX workbooks
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// NamedSweep is one parameter sweep written to its own sheet
type NamedSweep struct {
	Sheet  string
	Param  string
	Points []backtest.SweepPoint
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "E0E0E0", Style: 1},
	{Type: "right", Color: "E0E0E0", Style: 1},
	{Type: "bottom", Color: "E0E0E0", Style: 1},
}

// createExcelStyles creates the shared workbook styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Dark slate header with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	fourDecimals := "0.0000"
	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &fourDecimals,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	// Light green fill marks the best row of a sweep
	styles.HighlightStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &fourDecimals,
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"E6FFE6"}, Pattern: 1},
		Border:       thinBorder,
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

func newWorkbook(path string) (*excelize.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return excelize.NewFile(), nil
}

func writeHeader(fx *excelize.File, sheet string, row int, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// setNumber writes v into the cell, leaving it empty for NaN and Inf
func setNumber(fx *excelize.File, sheet string, col, row int, v float64, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(sheet, cell, cell, style)
}

func setInt(fx *excelize.File, sheet string, col, row, v, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := fx.SetCellValue(sheet, cell, v); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, cell, cell, style)
}

// WriteKellySweepXLSX writes the sweep table and its risk size comparison
func (r *DefaultExcelReporter) WriteKellySweepXLSX(res *montecarlo.SweepResult, path string) error {
	fx, err := newWorkbook(path)
	if err != nil {
		return err
	}
	defer fx.Close()

	const sweepSheet = "Kelly Sweep"
	const summarySheet = "Summary"
	if err := fx.SetSheetName(fx.GetSheetName(0), sweepSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	headers := []string{"Kelly Fraction", "Amount Risked %", "Median Return", "Median Variance", "Ruin Rate"}
	if err := writeHeader(fx, sweepSheet, 1, headers, styles.HeaderStyle); err != nil {
		return err
	}
	fx.SetColWidth(sweepSheet, "A", "E", 18)

	cmp := res.RiskSizeComparison()
	for i, f := range res.Fractions {
		row := i + 2
		numStyle := styles.NumberStyle
		if i == cmp.OptimalIndex {
			numStyle = styles.HighlightStyle
		}
		cells := []struct {
			v     float64
			style int
		}{
			{f.Fraction, numStyle},
			{f.AmountRisked, numStyle},
			{f.MedianReturn, numStyle},
			{f.MedianVariance, numStyle},
			{f.RuinRate, styles.PercentStyle},
		}
		for col, c := range cells {
			if err := setNumber(fx, sweepSheet, col+1, row, c.v, c.style); err != nil {
				return err
			}
		}
	}
	fx.SetPanes(sweepSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	summary := []struct {
		label string
		v     float64
	}{
		{"Optimal Kelly", res.OptKelly},
		{"Average Loss", res.Stats.AvgLoss},
		{"Ruin Threshold", res.Threshold},
		{"Van Tharp Risk %", cmp.VanTharpRisk},
		{"Max Return Risk %", cmp.OptimalRisk},
		{"Risk Size Ratio", cmp.RiskRatio},
		{"Return Ratio", cmp.ReturnRatio},
		{"Variance Ratio", cmp.VarianceRatio},
	}
	if err := writeHeader(fx, summarySheet, 1, []string{"Metric", "Value"}, styles.HeaderStyle); err != nil {
		return err
	}
	fx.SetColWidth(summarySheet, "A", "A", 22)
	fx.SetColWidth(summarySheet, "B", "B", 14)
	for i, s := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		fx.SetCellValue(summarySheet, cell, s.label)
		if err := setNumber(fx, summarySheet, 2, i+2, s.v, styles.NumberStyle); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

// WriteSweepsXLSX writes each sweep to its own sheet, best row highlighted
func (r *DefaultExcelReporter) WriteSweepsXLSX(sweeps []NamedSweep, path string) error {
	if len(sweeps) == 0 {
		return fmt.Errorf("no sweeps to write")
	}
	fx, err := newWorkbook(path)
	if err != nil {
		return err
	}
	defer fx.Close()

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	for i, s := range sweeps {
		if i == 0 {
			if err := fx.SetSheetName(fx.GetSheetName(0), s.Sheet); err != nil {
				return err
			}
		} else if _, err := fx.NewSheet(s.Sheet); err != nil {
			return err
		}

		if err := writeHeader(fx, s.Sheet, 1, []string{s.Param, "Sharpe", "Trades"}, styles.HeaderStyle); err != nil {
			return err
		}
		fx.SetColWidth(s.Sheet, "A", "C", 14)

		best, ok := backtest.BestPoint(s.Points)
		for j, p := range s.Points {
			row := j + 2
			sharpeStyle := styles.NumberStyle
			if ok && p.Value == best.Value {
				sharpeStyle = styles.HighlightStyle
			}
			if err := setInt(fx, s.Sheet, 1, row, p.Value, styles.BaseStyle); err != nil {
				return err
			}
			if err := setNumber(fx, s.Sheet, 2, row, p.Sharpe, sharpeStyle); err != nil {
				return err
			}
			if err := setInt(fx, s.Sheet, 3, row, p.Trades, styles.BaseStyle); err != nil {
				return err
			}
		}
	}

	return fx.SaveAs(path)
}

// WriteHeatmapXLSX writes the Sharpe grid as a matrix (lowers down, uppers
// across) with a red-yellow-green colour scale
func (r *DefaultExcelReporter) WriteHeatmapXLSX(g *backtest.SharpeGrid, path string) error {
	if len(g.Lowers) == 0 || len(g.Uppers) == 0 {
		return fmt.Errorf("empty heatmap")
	}
	fx, err := newWorkbook(path)
	if err != nil {
		return err
	}
	defer fx.Close()

	sheet := fmt.Sprintf("Sharpe RSI(%d)", g.Period)
	if err := fx.SetSheetName(fx.GetSheetName(0), sheet); err != nil {
		return err
	}
	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	corner, _ := excelize.CoordinatesToCellName(1, 1)
	fx.SetCellValue(sheet, corner, "Lower \\ Upper")
	fx.SetCellStyle(sheet, corner, corner, styles.HeaderStyle)
	for j, u := range g.Uppers {
		if err := setInt(fx, sheet, j+2, 1, u, styles.HeaderStyle); err != nil {
			return err
		}
	}
	for i, l := range g.Lowers {
		if err := setInt(fx, sheet, 1, i+2, l, styles.HeaderStyle); err != nil {
			return err
		}
		for j := range g.Uppers {
			if err := setNumber(fx, sheet, j+2, i+2, g.Values[i][j], styles.NumberStyle); err != nil {
				return err
			}
		}
	}

	first, _ := excelize.CoordinatesToCellName(2, 2)
	last, _ := excelize.CoordinatesToCellName(len(g.Uppers)+1, len(g.Lowers)+1)
	err = fx.SetConditionalFormat(sheet, first+":"+last, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "min",
		MidType:  "percentile",
		MidValue: "50",
		MaxType:  "max",
		MinColor: "#F8696B",
		MidColor: "#FFEB84",
		MaxColor: "#63BE7B",
	}})
	if err != nil {
		return err
	}
	fx.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})

	return fx.SaveAs(path)
}
