package data

import (
	"errors"
	"time"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

var (
	// ErrMissingColumn is returned when a required header is absent
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptySeries is returned when a file yields no usable rows
	ErrEmptySeries = errors.New("empty series")
)

// PnLProvider loads a per-trade profit and loss series
type PnLProvider interface {
	// LoadPnL reads the PnL column of a tabular file
	LoadPnL(source string) (types.PnLSeries, error)
}

// PriceProvider loads daily price histories
type PriceProvider interface {
	// LoadPrices reads a Yahoo style history file
	LoadPrices(source string) ([]types.PriceBar, error)

	// ValidateData checks the loaded bars are usable
	ValidateData(bars []types.PriceBar) error

	// GetName returns the name of the data provider
	GetName() string
}

// PriceCache caches loaded price histories by key
type PriceCache interface {
	Get(key string) ([]types.PriceBar, bool)
	Set(key string, bars []types.PriceBar)
	Clear()
	Size() int
}

// DataFilter windows and orders price histories
type DataFilter interface {
	// FilterByDateRange keeps bars inside [start, end]. A zero bound is open.
	FilterByDateRange(bars []types.PriceBar, start, end time.Time) []types.PriceBar

	// ValidateTimeSequence ensures bars are in chronological order
	ValidateTimeSequence(bars []types.PriceBar) error
}

// FileLocator maps tickers to history files
type FileLocator interface {
	// TickerFile returns folder/TICKER.csv
	TickerFile(folder, ticker string) string

	// FindTickerFile returns the first existing file for ticker, or an error
	FindTickerFile(folder, ticker string) (string, error)
}

// PriceColumns names the headers read from a price history file
type PriceColumns struct {
	Date     string
	Close    string
	AdjClose string
}

// YahooColumns is the layout written by Yahoo Finance downloads
var YahooColumns = PriceColumns{
	Date:     "Date",
	Close:    "Close",
	AdjClose: "Adj Close",
}

// DefaultPnLColumn is the header holding trade results
const DefaultPnLColumn = "PnL"
