package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSISeries_WarmUpAndValues(t *testing.T) {
	values := []float64{1, 2, 1, 3, 3}
	rsi := RSISeries(values, 3)

	require.Len(t, rsi, 5)
	assert.True(t, math.IsNaN(rsi[0]))
	assert.True(t, math.IsNaN(rsi[1]))

	// window [0, 1, 0] gains, [0, 0, 1] losses
	assert.InDelta(t, 50.0, rsi[2], 1e-9)
	// gains [1, 0, 2], losses [0, 1, 0]
	assert.InDelta(t, 75.0, rsi[3], 1e-9)
	// gains [0, 2, 0], losses [1, 0, 0]
	assert.InDelta(t, 100-100/(1+2.0), rsi[4], 1e-9)
}

func TestRSISeries_OnlyGainsAndFlat(t *testing.T) {
	rising := RSISeries([]float64{1, 2, 3, 4}, 2)
	assert.Equal(t, 100.0, rising[1])
	assert.Equal(t, 100.0, rising[3])

	flat := RSISeries([]float64{5, 5, 5, 5}, 2)
	for _, v := range flat {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSISeries_ShortInput(t *testing.T) {
	rsi := RSISeries([]float64{1, 2}, 14)
	assert.True(t, math.IsNaN(rsi[0]))
	assert.True(t, math.IsNaN(rsi[1]))
	assert.Empty(t, RSISeries(nil, 3))
}

func TestRSI_Calculate(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i%3) - float64(i)/10
	}

	r := NewRSI(14)
	value, err := r.Calculate(prices)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, 0.0)
	assert.LessOrEqual(t, value, 100.0)

	series := RSISeries(prices, 14)
	assert.Equal(t, series[len(series)-1], value)

	_, err = r.Calculate(prices[:10])
	assert.Error(t, err)
}

func TestWilderRSISeries(t *testing.T) {
	prices := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00}
	rsi := WilderRSISeries(prices, 14)

	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]))
	}
	// classic Wilder worked example
	assert.InDelta(t, 70.46, rsi[14], 0.01)
	assert.False(t, math.IsNaN(rsi[15]))

	r := NewRSIWithSmoothing(14, SmoothingWilder)
	assert.Equal(t, "RSI (Wilder)", r.GetName())
	assert.Equal(t, 15, r.GetRequiredPeriods())
}

func TestParseSmoothing(t *testing.T) {
	s, err := ParseSmoothing("")
	require.NoError(t, err)
	assert.Equal(t, SmoothingSimple, s)

	s, err = ParseSmoothing("wilder")
	require.NoError(t, err)
	assert.Equal(t, SmoothingWilder, s)

	_, err = ParseSmoothing("ema")
	assert.Error(t, err)
}

func TestRollingMean(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDeltaSlice(t, []float64{1.5, 2.5, 3.5}, out[1:], 1e-12)

	v, err := NewSMA(3).Calculate([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
}
