package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// CSVPriceProvider implements PriceProvider for Yahoo style CSV files
type CSVPriceProvider struct {
	columns PriceColumns
}

// NewCSVPriceProvider creates a new CSV price provider with the Yahoo layout
func NewCSVPriceProvider() *CSVPriceProvider {
	return &CSVPriceProvider{columns: YahooColumns}
}

// NewCSVPriceProviderWithColumns creates a CSV price provider with custom headers
func NewCSVPriceProviderWithColumns(columns PriceColumns) *CSVPriceProvider {
	return &CSVPriceProvider{columns: columns}
}

// GetName returns the name of the data provider
func (p *CSVPriceProvider) GetName() string {
	return "CSV Price Provider"
}

// LoadPrices loads daily bars from a CSV file
func (p *CSVPriceProvider) LoadPrices(source string) ([]types.PriceBar, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer file.Close()

	return p.readPrices(file, filepath.Base(source))
}

func (p *CSVPriceProvider) readPrices(r io.Reader, name string) ([]types.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	dateCol := headerIndex(header, p.columns.Date)
	if dateCol < 0 {
		return nil, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, p.columns.Date)
	}
	adjCol := headerIndex(header, p.columns.AdjClose)
	if adjCol < 0 {
		return nil, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, p.columns.AdjClose)
	}
	// Close is informational only
	closeCol := headerIndex(header, p.columns.Close)

	var bars []types.PriceBar
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%s: error reading CSV at line %d: %w", name, lineNum+1, err)
		}
		lineNum++

		if dateCol >= len(record) || adjCol >= len(record) {
			logrus.Warnf("⚠️ Insufficient columns at line %d of %s, skipping", lineNum, name)
			continue
		}

		ts, err := dateparse.ParseAny(strings.TrimSpace(record[dateCol]))
		if err != nil {
			logrus.Warnf("⚠️ Invalid date '%s' at line %d of %s, skipping: %v", record[dateCol], lineNum, name, err)
			continue
		}

		adj, ok := parsePrice(record[adjCol])
		if !ok {
			logrus.Debugf("Missing adjusted close at line %d of %s, skipping", lineNum, name)
			continue
		}

		bar := types.PriceBar{Timestamp: ts, AdjClose: adj, Close: adj}
		if closeCol >= 0 && closeCol < len(record) {
			if c, ok := parsePrice(record[closeCol]); ok {
				bar.Close = c
			}
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
	}
	return bars, nil
}

// parsePrice parses a price cell, treating blank and "null" as missing
func parsePrice(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "null") || strings.EqualFold(cell, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidateData validates the integrity of loaded bars
func (p *CSVPriceProvider) ValidateData(bars []types.PriceBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, bar := range bars {
		if bar.AdjClose <= 0 {
			return fmt.Errorf("invalid price data at index %d: adjusted close must be positive (%.4f)", i, bar.AdjClose)
		}
	}

	return nil
}
