package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markcheno/go-quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPnL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trades.csv", "Date,PnL,Note\n2024-01-02,0.02,a\n2024-01-03,-0.01,b\n2024-01-04,,c\n2024-01-05,0.005,d\n")

	pnl, err := NewCSVPnLProvider().LoadPnL(path)
	require.NoError(t, err)
	assert.Equal(t, types.PnLSeries{0.02, -0.01, 0.005}, pnl)
}

func TestLoadPnL_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trades.csv", "Date,Profit\n2024-01-02,0.02\n")

	_, err := NewCSVPnLProvider().LoadPnL(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "trades.csv")
}

func TestLoadPnL_CustomColumnAndBadCell(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trades.csv", "Profit\n0.1\nabc\n")

	_, err := NewCSVPnLProviderWithColumn("Profit").LoadPnL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadPnL_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trades.csv", "PnL\n")

	_, err := NewCSVPnLProvider().LoadPnL(path)
	assert.True(t, errors.Is(err, ErrEmptySeries))
}

const qqqCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-03,10,10,10,10,9.5,100
2024-01-02,10,10,10,10,9,100
2024-01-04,10,10,10,10,null,100
2024-01-05,10,10,10,10,10,100
`

const tltCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-02,5,5,5,5,4.5,1
2024-01-03,5,5,5,5,4.75,1
2024-01-05,5,5,5,5,5,1
`

func TestLoadPrices(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "QQQ.csv", qqqCSV)

	bars, err := NewCSVPriceProvider().LoadPrices(path)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 9.5, bars[0].AdjClose)
	assert.Equal(t, 10.0, bars[0].Close)
	assert.Equal(t, 2024, bars[0].Timestamp.Year())
}

func TestLoadPrices_MissingAdjClose(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "QQQ.csv", "Date,Close\n2024-01-02,1\n")

	_, err := NewCSVPriceProvider().LoadPrices(path)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestCachedProvider(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "QQQ.csv", qqqCSV)

	p := NewCachedProvider(NewCSVPriceProvider())
	first, err := p.LoadPrices(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	second, err := p.LoadPrices(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.GetCacheSize())

	second[0].AdjClose = -1
	third, _ := p.LoadPrices(path)
	assert.Equal(t, 9.5, third[0].AdjClose)
}

func TestMergeOnDate(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	left := []types.PriceBar{{Timestamp: d(3), AdjClose: 3}, {Timestamp: d(1), AdjClose: 1}, {Timestamp: d(2), AdjClose: 2}}
	right := []types.PriceBar{{Timestamp: d(2), AdjClose: 20}, {Timestamp: d(3), AdjClose: 30}, {Timestamp: d(4), AdjClose: 40}}

	merged := MergeOnDate(left, right)
	require.Len(t, merged, 2)
	assert.Equal(t, d(2), merged[0].Date)
	assert.Equal(t, 2.0, merged[0].Left)
	assert.Equal(t, 20.0, merged[0].Right)
	assert.Equal(t, d(3), merged[1].Date)
}

func TestFilterByDateRange(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	bars := []types.PriceBar{{Timestamp: d(1)}, {Timestamp: d(2)}, {Timestamp: d(3)}}
	f := NewDefaultDataFilter()

	assert.Len(t, f.FilterByDateRange(bars, time.Time{}, time.Time{}), 3)
	assert.Len(t, f.FilterByDateRange(bars, d(2), time.Time{}), 2)
	assert.Len(t, f.FilterByDateRange(bars, d(2), d(2)), 1)

	assert.Error(t, f.ValidateTimeSequence([]types.PriceBar{{Timestamp: d(2)}, {Timestamp: d(1)}}))
	assert.NoError(t, f.ValidateTimeSequence(f.SortByTimestamp([]types.PriceBar{{Timestamp: d(2)}, {Timestamp: d(1)}})))
}

func TestDataManager_LoadPair(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "QQQ.csv", qqqCSV)
	writeFile(t, dir, "TLT.csv", tltCSV)

	merged, err := NewDataManager().LoadPair(dir, "qqq", "TLT", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, 9.0, merged[0].Left)
	assert.Equal(t, 4.5, merged[0].Right)
	assert.Equal(t, 10.0, merged[2].Left)
}

func TestFindTickerFile_Missing(t *testing.T) {
	_, err := NewDefaultFileLocator().FindTickerFile(t.TempDir(), "SPY")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestQuoteFetcher_WritesReadableCSV(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	source := func(symbol, start, end string, adjusted bool) (quote.Quote, error) {
		calls++
		q := quote.NewQuote(symbol, 2)
		for i := 0; i < 2; i++ {
			q.Date[i] = time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC)
			q.Open[i], q.High[i], q.Low[i], q.Close[i], q.Volume[i] = 10, 11, 9, 10, 1000
			if adjusted {
				q.Close[i] = 8 + float64(i)
			}
		}
		return q, nil
	}

	paths, err := NewQuoteFetcher(source, 100).Fetch(context.Background(), dir, []string{"qqq"}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, filepath.Join(dir, "QQQ.csv"), paths[0])

	bars, err := NewCSVPriceProvider().LoadPrices(paths[0])
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 8.0, bars[0].AdjClose)
	assert.Equal(t, 10.0, bars[0].Close)
}

func TestQuoteFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := func(symbol, start, end string, adjusted bool) (quote.Quote, error) {
		return quote.Quote{}, nil
	}
	_, err := NewQuoteFetcher(source, 1).Fetch(ctx, t.TempDir(), []string{"QQQ"}, time.Time{}, time.Time{})
	assert.Error(t, err)
}
