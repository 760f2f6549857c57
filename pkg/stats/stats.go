// Package stats holds the numeric helpers shared by the sizing and ratio
// analyses. Moments come from gonum; the percentile estimator interpolates
// linearly between closest ranks so results line up with the usual
// spreadsheet and numpy conventions.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, NaN for empty input
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// PopVariance returns the population variance (ddof 0)
func PopVariance(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	_, v := stat.PopMeanVariance(x, nil)
	return v
}

// PopStdDev returns the population standard deviation (ddof 0)
func PopStdDev(x []float64) float64 {
	return math.Sqrt(PopVariance(x))
}

// SampleStdDev returns the unbiased standard deviation (ddof 1)
func SampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// DropNaN returns the finite-or-infinite (non NaN) values of x
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NanMean is Mean over the non-NaN values
func NanMean(x []float64) float64 {
	return Mean(DropNaN(x))
}

// NanSampleStdDev is SampleStdDev over the non-NaN values
func NanSampleStdDev(x []float64) float64 {
	return SampleStdDev(DropNaN(x))
}

// Percentile returns the p-th percentile (0..100) of the non-NaN values of
// x using linear interpolation between closest ranks. It is NaN when x has
// no defined values. x is not modified.
func Percentile(x []float64, p float64) float64 {
	return Percentiles(x, p)[0]
}

// Percentiles evaluates several NaN-skipping percentiles with a single sort
func Percentiles(x []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	sorted := DropNaN(x)
	if len(sorted) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sort.Float64s(sorted)
	for i, p := range ps {
		out[i] = percentileSorted(sorted, p)
	}
	return out
}

func percentileSorted(sorted []float64, p float64) float64 {
	if math.IsNaN(p) {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median is the 50th percentile
func Median(x []float64) float64 {
	return Percentile(x, 50)
}

// Linspace returns n evenly spaced values over [lo, hi] inclusive
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// CumSum returns the running sum of x
func CumSum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	return floats.CumSum(make([]float64, len(x)), x)
}

// RunningMax returns the running maximum of x
func RunningMax(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if i == 0 || v > out[i-1] {
			out[i] = v
		} else {
			out[i] = out[i-1]
		}
	}
	return out
}

// ArgMax returns the index of the first maximum, ignoring NaN. -1 when
// no finite value exists.
func ArgMax(x []float64) int {
	idx := -1
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > x[idx] {
			idx = i
		}
	}
	return idx
}

// ArgMinAbs returns the index of the element closest to target
func ArgMinAbs(x []float64, target float64) int {
	idx := -1
	best := math.Inf(1)
	for i, v := range x {
		d := math.Abs(v - target)
		if d < best {
			best = d
			idx = i
		}
	}
	return idx
}

// MaxFinite returns the largest non-NaN value, NaN when none exists
func MaxFinite(x []float64) float64 {
	i := ArgMax(x)
	if i < 0 {
		return math.NaN()
	}
	return x[i]
}

// Scale returns x divided by d element-wise. A zero or NaN divisor yields
// a slice of NaN.
func Scale(x []float64, d float64) []float64 {
	out := make([]float64, len(x))
	if d == 0 || math.IsNaN(d) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	copy(out, x)
	floats.Scale(1/d, out)
	return out
}
