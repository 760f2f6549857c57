package montecarlo

import "math/rand"

// Sampler draws a synthetic trade sequence from a recorded one
type Sampler interface {
	// Sample fills dst (len(dst) draws) from pnl and returns it
	Sample(rng *rand.Rand, pnl, dst []float64) []float64
	Name() string
}

// Bootstrap draws with replacement
type Bootstrap struct{}

// Sample draws len(dst) trades uniformly with replacement
func (Bootstrap) Sample(rng *rand.Rand, pnl, dst []float64) []float64 {
	for i := range dst {
		dst[i] = pnl[rng.Intn(len(pnl))]
	}
	return dst
}

// Name returns the sampler name
func (Bootstrap) Name() string { return "bootstrap" }

// Permutation reorders the recorded trades without replacement
type Permutation struct{}

// Sample copies pnl into dst and shuffles it. dst must have len(pnl).
func (Permutation) Sample(rng *rand.Rand, pnl, dst []float64) []float64 {
	copy(dst, pnl)
	rng.Shuffle(len(dst), func(i, j int) {
		dst[i], dst[j] = dst[j], dst[i]
	})
	return dst
}

// Name returns the sampler name
func (Permutation) Name() string { return "permutation" }

// SamplerByName resolves "bootstrap" and "permutation"
func SamplerByName(name string) (Sampler, bool) {
	switch name {
	case "bootstrap", "randomize":
		return Bootstrap{}, true
	case "permutation", "resample", "permute":
		return Permutation{}, true
	}
	return nil, false
}

// seedFor derives an independent stream seed for work item i
func seedFor(seed int64, i int) int64 {
	z := uint64(seed) + uint64(i+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
