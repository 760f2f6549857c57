package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/markcheno/go-quote"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// QuoteSource downloads daily history for a symbol. adjusted selects
// split and dividend adjusted prices.
type QuoteSource func(symbol, start, end string, adjusted bool) (quote.Quote, error)

// YahooSource fetches from Yahoo Finance through go-quote
func YahooSource(symbol, start, end string, adjusted bool) (quote.Quote, error) {
	return quote.NewQuoteFromYahoo(symbol, start, end, quote.Daily, adjusted)
}

// QuoteFetcher downloads ticker histories into Yahoo style CSV files
type QuoteFetcher struct {
	source  QuoteSource
	limiter *rate.Limiter
	locator FileLocator
}

// NewQuoteFetcher creates a fetcher allowing perSecond requests per second
func NewQuoteFetcher(source QuoteSource, perSecond float64) *QuoteFetcher {
	if source == nil {
		source = YahooSource
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &QuoteFetcher{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		locator: NewDefaultFileLocator(),
	}
}

// Fetch downloads each ticker for [start, end] and writes folder/TICKER.csv.
// It returns the written paths in ticker order.
func (f *QuoteFetcher) Fetch(ctx context.Context, folder string, tickers []string, start, end time.Time) ([]string, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create data folder: %w", err)
	}
	if end.IsZero() {
		end = time.Now()
	}

	from, to := start.Format(time.DateOnly), end.Format(time.DateOnly)
	paths := make([]string, 0, len(tickers))

	for _, ticker := range tickers {
		adjusted, err := f.download(ctx, ticker, from, to, true)
		if err != nil {
			return paths, err
		}
		raw, err := f.download(ctx, ticker, from, to, false)
		if err != nil {
			return paths, err
		}

		path := f.locator.TickerFile(folder, ticker)
		if err := WriteYahooCSV(path, raw, adjusted); err != nil {
			return paths, err
		}
		logrus.Infof("💾 Saved %d rows for %s to %s", len(adjusted.Date), ticker, filepath.Base(path))
		paths = append(paths, path)
	}

	return paths, nil
}

func (f *QuoteFetcher) download(ctx context.Context, ticker, from, to string, adjusted bool) (quote.Quote, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return quote.Quote{}, err
	}
	q, err := f.source(ticker, from, to, adjusted)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("download %s: %w", ticker, err)
	}
	if len(q.Date) == 0 {
		return quote.Quote{}, fmt.Errorf("download %s: %w", ticker, ErrEmptySeries)
	}
	return q, nil
}

// WriteYahooCSV writes Date, Open, High, Low, Close, Adj Close, Volume rows.
// Open/High/Low/Close/Volume come from raw; Adj Close from the adjusted
// quote matched on date.
func WriteYahooCSV(path string, raw, adjusted quote.Quote) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	adjByDay := make(map[string]float64, len(adjusted.Date))
	for i, d := range adjusted.Date {
		adjByDay[dayKey(d)] = adjusted.Close[i]
	}

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for i, d := range raw.Date {
		adj := "null"
		if v, ok := adjByDay[dayKey(d)]; ok {
			adj = format(v)
		}
		row := []string{
			dayKey(d),
			format(raw.Open[i]),
			format(raw.High[i]),
			format(raw.Low[i]),
			format(raw.Close[i]),
			adj,
			format(raw.Volume[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
