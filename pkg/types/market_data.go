package types

import "time"

// PriceBar is one row of a daily price history file
type PriceBar struct {
	Timestamp time.Time
	Close     float64
	AdjClose  float64
}

// PricePoint is a dated scalar, used for merged and derived series
type PricePoint struct {
	Date  time.Time
	Value float64
}

// PnLSeries holds per-trade profit and loss expressed as a fraction of equity
type PnLSeries []float64

// Len returns the number of trades
func (s PnLSeries) Len() int {
	return len(s)
}

// Wins returns the strictly positive trades
func (s PnLSeries) Wins() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Losses returns the strictly negative trades
func (s PnLSeries) Losses() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if v < 0 {
			out = append(out, v)
		}
	}
	return out
}

// Values returns the series as a plain slice
func (s PnLSeries) Values() []float64 {
	return []float64(s)
}
