package data

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// DataManager combines the loaders, filter and locator behind one value
type DataManager struct {
	pnl      PnLProvider
	provider PriceProvider
	filter   DataFilter
	locator  FileLocator
}

// NewDataManager creates a data manager with default components
func NewDataManager() *DataManager {
	return &DataManager{
		pnl:      NewCSVPnLProvider(),
		provider: NewCachedProvider(NewCSVPriceProvider()),
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
	}
}

// NewDataManagerWithProviders creates a data manager with custom loaders
func NewDataManagerWithProviders(pnl PnLProvider, prices PriceProvider) *DataManager {
	return &DataManager{
		pnl:      pnl,
		provider: prices,
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
	}
}

// LoadPnL loads a trade series
func (dm *DataManager) LoadPnL(path string) (types.PnLSeries, error) {
	return dm.pnl.LoadPnL(path)
}

// LoadTicker locates, loads, orders and windows the history of one ticker
func (dm *DataManager) LoadTicker(folder, ticker string, start, end time.Time) ([]types.PriceBar, error) {
	path, err := dm.locator.FindTickerFile(folder, ticker)
	if err != nil {
		return nil, err
	}

	bars, err := dm.provider.LoadPrices(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	if err := dm.provider.ValidateData(bars); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ticker, err)
	}

	bars = dm.filter.FilterByDateRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no rows inside the requested window: %w", ticker, ErrEmptySeries)
	}
	return bars, nil
}

// LoadPair loads two tickers and inner-joins them on date
func (dm *DataManager) LoadPair(folder, ticker, base string, start, end time.Time) ([]MergedBar, error) {
	left, err := dm.LoadTicker(folder, ticker, start, end)
	if err != nil {
		return nil, err
	}
	right, err := dm.LoadTicker(folder, base, start, end)
	if err != nil {
		return nil, err
	}

	merged := MergeOnDate(left, right)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%s and %s share no dates: %w", ticker, base, ErrEmptySeries)
	}
	return merged, nil
}

// TickerFile returns the conventional path for a ticker
func (dm *DataManager) TickerFile(folder, ticker string) string {
	return dm.locator.TickerFile(folder, ticker)
}

// GetProvider returns the underlying price provider
func (dm *DataManager) GetProvider() PriceProvider {
	return dm.provider
}
