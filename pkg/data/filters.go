package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// DefaultDataFilter implements DataFilter for common filtering operations
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByDateRange keeps bars with start <= t <= end. Zero bounds are open.
func (f *DefaultDataFilter) FilterByDateRange(bars []types.PriceBar, start, end time.Time) []types.PriceBar {
	if len(bars) == 0 || (start.IsZero() && end.IsZero()) {
		return bars
	}

	filtered := make([]types.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if !start.IsZero() && bar.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, bar)
	}

	return filtered
}

// ValidateTimeSequence ensures bars are in chronological order without duplicates
func (f *DefaultDataFilter) ValidateTimeSequence(bars []types.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, bars[i].Timestamp.Format(time.DateOnly), bars[i-1].Timestamp.Format(time.DateOnly))
		}
		if bars[i].Timestamp.Equal(bars[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, bars[i].Timestamp.Format(time.DateOnly))
		}
	}
	return nil
}

// SortByTimestamp returns a copy of bars in ascending time order
func (f *DefaultDataFilter) SortByTimestamp(bars []types.PriceBar) []types.PriceBar {
	sorted := make([]types.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// MergedBar pairs the adjusted closes of two tickers on one calendar date
type MergedBar struct {
	Date  time.Time
	Left  float64
	Right float64
}

// MergeOnDate inner-joins two histories on calendar date and returns the
// rows in ascending date order. Duplicate dates keep every pairing, like a
// relational join.
func MergeOnDate(left, right []types.PriceBar) []MergedBar {
	byDay := make(map[string][]float64, len(right))
	for _, bar := range right {
		key := dayKey(bar.Timestamp)
		byDay[key] = append(byDay[key], bar.AdjClose)
	}

	merged := make([]MergedBar, 0, len(left))
	for _, bar := range left {
		for _, r := range byDay[dayKey(bar.Timestamp)] {
			merged = append(merged, MergedBar{
				Date:  truncateDay(bar.Timestamp),
				Left:  bar.AdjClose,
				Right: r,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
