package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA_Calculate(t *testing.T) {
	sma := NewSMA(3)

	_, err := sma.Calculate([]float64{1, 2})
	assert.ErrorContains(t, err, "insufficient data")

	v, err := sma.Calculate([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
}

func TestSMA_SeriesMatchesRollingMean(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	got := NewSMA(2).Series(values)

	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, []float64{3, 5, 7, 9}, got[1:])
	assert.Equal(t, "SMA", NewSMA(2).GetName())
	assert.Equal(t, 2, NewSMA(2).GetRequiredPeriods())
}

func TestRollingMean_ZeroWindowIsExact(t *testing.T) {
	got := RollingMean([]float64{0.1, 0.2, 0, 0, 0}, 3)
	assert.Equal(t, 0.0, got[4])

	for _, v := range RollingMean([]float64{1, 2}, 0) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestIndicatorsImplementSeriesIndicator(t *testing.T) {
	var _ SeriesIndicator = NewSMA(3)
	var _ SeriesIndicator = NewRSI(3)
}
