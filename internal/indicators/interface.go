package indicators

import "fmt"

// SeriesIndicator maps a value series to an aligned indicator series.
// Entries without enough history are NaN.
type SeriesIndicator interface {
	Series(values []float64) []float64
	GetName() string
	GetRequiredPeriods() int
}

// Smoothing selects how RSI averages gains and losses
type Smoothing string

const (
	// SmoothingSimple uses a rolling arithmetic mean
	SmoothingSimple Smoothing = "simple"
	// SmoothingWilder uses Wilder's recursive average
	SmoothingWilder Smoothing = "wilder"
)

// ParseSmoothing validates a smoothing name. Empty means simple.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(s) {
	case "", SmoothingSimple:
		return SmoothingSimple, nil
	case SmoothingWilder:
		return SmoothingWilder, nil
	}
	return "", fmt.Errorf("unknown RSI smoothing %q (want simple or wilder)", s)
}
