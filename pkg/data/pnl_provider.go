package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// CSVPnLProvider implements PnLProvider for CSV files with a header row
type CSVPnLProvider struct {
	column string
}

// NewCSVPnLProvider creates a provider reading the default PnL column
func NewCSVPnLProvider() *CSVPnLProvider {
	return &CSVPnLProvider{column: DefaultPnLColumn}
}

// NewCSVPnLProviderWithColumn creates a provider reading a custom column
func NewCSVPnLProviderWithColumn(column string) *CSVPnLProvider {
	if strings.TrimSpace(column) == "" {
		column = DefaultPnLColumn
	}
	return &CSVPnLProvider{column: column}
}

// Column returns the header this provider reads
func (p *CSVPnLProvider) Column() string {
	return p.column
}

// LoadPnL loads the PnL column from a CSV file
func (p *CSVPnLProvider) LoadPnL(source string) (types.PnLSeries, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open pnl file: %w", err)
	}
	defer file.Close()

	return p.readPnL(file, filepath.Base(source))
}

func (p *CSVPnLProvider) readPnL(r io.Reader, name string) (types.PnLSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	col := headerIndex(header, p.column)
	if col < 0 {
		return nil, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, p.column)
	}

	var series types.PnLSeries
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

		if col >= len(record) || strings.TrimSpace(record[col]) == "" {
			logrus.Warnf("⚠️ Blank %s at line %d of %s, skipping", p.column, lineNum, name)
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid %s %q at line %d: %w", name, p.column, record[col], lineNum, err)
		}
		series = append(series, v)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
	}

	logrus.Debugf("Loaded %d trades from %s", len(series), name)
	return series, nil
}

// headerIndex finds a column by name, ignoring surrounding spaces and a BOM
func headerIndex(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == name {
			return i
		}
	}
	return -1
}
