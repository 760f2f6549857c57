package indicators

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index
type RSI struct {
	period    int
	smoothing Smoothing
}

// NewRSI creates a simple-average RSI with the given period
func NewRSI(period int) *RSI {
	return &RSI{period: period, smoothing: SmoothingSimple}
}

// NewRSIWithSmoothing creates an RSI with the given averaging method
func NewRSIWithSmoothing(period int, smoothing Smoothing) *RSI {
	if smoothing == "" {
		smoothing = SmoothingSimple
	}
	return &RSI{period: period, smoothing: smoothing}
}

// Calculate returns the RSI at the last price
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if r.period <= 0 || len(prices) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}
	series := r.Series(prices)
	return series[len(series)-1], nil
}

// Series returns the RSI of every price
func (r *RSI) Series(prices []float64) []float64 {
	if r.smoothing == SmoothingWilder {
		return WilderRSISeries(prices, r.period)
	}
	return RSISeries(prices, r.period)
}

// GetName returns the indicator name
func (r *RSI) GetName() string {
	if r.smoothing == SmoothingWilder {
		return "RSI (Wilder)"
	}
	return "RSI"
}

// GetRequiredPeriods returns the index of the first defined value plus one
func (r *RSI) GetRequiredPeriods() int {
	if r.smoothing == SmoothingWilder {
		return r.period + 1
	}
	return r.period
}

// RSISeries computes RSI with simple rolling means of gains and losses.
//
// The change at index 0 counts as neither gain nor loss, so the first
// defined value is at index period-1. A window with losses of zero is 100
// when it has gains and NaN when flat.
func RSISeries(values []float64, period int) []float64 {
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := RollingMean(gains, period)
	avgLoss := RollingMean(losses, period)

	out := make([]float64, len(values))
	for i := range out {
		out[i] = rsiFromAverages(avgGain[i], avgLoss[i])
	}
	return out
}

func rsiFromAverages(gain, loss float64) float64 {
	switch {
	case math.IsNaN(gain) || math.IsNaN(loss):
		return math.NaN()
	case loss == 0 && gain == 0:
		return math.NaN()
	case loss == 0:
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// WilderRSISeries computes RSI with Wilder smoothing. The first period
// entries are NaN.
func WilderRSISeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 2 || len(values) <= period {
		return out
	}

	rsi := talib.Rsi(values, period)
	for i := period; i < len(values) && i < len(rsi); i++ {
		out[i] = rsi[i]
	}
	return out
}
