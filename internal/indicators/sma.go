package indicators

import (
	"errors"
	"math"
)

// SMA represents the Simple Moving Average technical indicator
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate returns the mean of the last period values
func (s *SMA) Calculate(values []float64) (float64, error) {
	if s.period <= 0 || len(values) < s.period {
		return 0, errors.New("insufficient data for SMA calculation")
	}

	sum := 0.0
	for _, v := range values[len(values)-s.period:] {
		sum += v
	}
	return sum / float64(s.period), nil
}

// Series returns the rolling mean, NaN until a full window is available
func (s *SMA) Series(values []float64) []float64 {
	return RollingMean(values, s.period)
}

// GetName returns the indicator name
func (s *SMA) GetName() string {
	return "SMA"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}

// RollingMean returns the mean of each trailing window. Index i is defined
// from i = window-1 on. Windows are summed directly so a window of zeros
// averages to exactly zero.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}
