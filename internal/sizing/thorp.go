package sizing

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroVariance is returned when the PnL series has no dispersion
var ErrZeroVariance = errors.New("zero variance")

// ThorpKelly returns the continuous Kelly fraction (mu - rf) / sigmaSq
func ThorpKelly(mu, sigmaSq, rf float64) (float64, error) {
	if math.IsNaN(mu) || math.IsNaN(sigmaSq) {
		return math.NaN(), fmt.Errorf("thorp kelly: undefined moments")
	}
	if sigmaSq == 0 {
		return math.NaN(), ErrZeroVariance
	}
	return (mu - rf) / sigmaSq, nil
}

// ThorpResult is the scalar output of the Thorp method
type ThorpResult struct {
	Stats    Stats
	RiskFree float64
	Fraction float64
}

// AnalyzeThorp computes the Thorp Kelly fraction of pnl
func AnalyzeThorp(s Stats, rf float64) (ThorpResult, error) {
	f, err := ThorpKelly(s.Mean, s.Variance, rf)
	if err != nil {
		return ThorpResult{}, err
	}
	return ThorpResult{Stats: s, RiskFree: rf, Fraction: f}, nil
}
