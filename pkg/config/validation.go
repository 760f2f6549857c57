package config

import (
	"fmt"

	"github.com/ducminhle1904/sizing-lab/internal/indicators"
)

// AnalysisValidator checks every section of a Config
type AnalysisValidator struct{}

// NewAnalysisValidator creates a new validator
func NewAnalysisValidator() *AnalysisValidator {
	return &AnalysisValidator{}
}

// Validate performs validation on every section
func (v *AnalysisValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got: %d", cfg.Workers)
	}

	checks := []func(*Config) error{
		v.validateData,
		v.validateKelly,
		v.validateMonteCarlo,
		v.validateSweep,
		v.validateRatio,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (v *AnalysisValidator) validateData(cfg *Config) error {
	d := cfg.Data
	if d.PnLColumn == "" {
		return fmt.Errorf("data.pnl_column must not be empty")
	}
	if d.Ticker == "" || d.Base == "" {
		return fmt.Errorf("data.ticker and data.base must not be empty")
	}
	if _, _, err := d.DateRange(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return nil
}

func (v *AnalysisValidator) validateKelly(cfg *Config) error {
	k := cfg.Kelly
	if k.LossGridSteps <= 0 {
		return fmt.Errorf("kelly.loss_grid_points must be positive, got: %d", k.LossGridSteps)
	}
	if k.LossGridMax <= k.LossGridMin {
		return fmt.Errorf("kelly.loss_grid_max must exceed loss_grid_min, got: %g <= %g", k.LossGridMax, k.LossGridMin)
	}
	if k.MaxRisk <= 0 || k.MaxRisk > MaxRuinLevel {
		return fmt.Errorf("kelly.max_risk must be within (0, %.0f], got: %g", MaxRuinLevel, k.MaxRisk)
	}
	if k.RiskPoints <= 0 {
		return fmt.Errorf("kelly.risk_points must be positive, got: %d", k.RiskPoints)
	}
	if k.Trades < 0 || k.Shuffles < 0 {
		return fmt.Errorf("kelly.trades and kelly.shuffles must be non-negative")
	}
	return nil
}

func (v *AnalysisValidator) validateMonteCarlo(cfg *Config) error {
	if cfg.MonteCarlo.Sims <= 0 {
		return fmt.Errorf("montecarlo.sims must be positive, got: %d", cfg.MonteCarlo.Sims)
	}
	return nil
}

func (v *AnalysisValidator) validateSweep(cfg *Config) error {
	if err := cfg.SweepConfig().Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

func (v *AnalysisValidator) validateRatio(cfg *Config) error {
	r := cfg.Ratio
	if _, err := indicators.ParseSmoothing(r.Smoothing); err != nil {
		return fmt.Errorf("ratio: %w", err)
	}
	params, _ := cfg.RatioParams()
	if err := params.Validate(); err != nil {
		return fmt.Errorf("ratio: %w", err)
	}
	sweep, _ := cfg.SweepParams()
	if err := sweep.Validate(); err != nil {
		return fmt.Errorf("ratio sweep: %w", err)
	}

	ranges := []struct {
		name     string
		lo, hi   int
		min, max int
	}{
		{"lower", r.LowerStart, r.LowerEnd, 0, int(MaxRSIThreshold)},
		{"upper", r.UpperStart, r.UpperEnd, 0, int(MaxRSIThreshold)},
		{"lookback", r.LookbackStart, r.LookbackEnd, 1, 1 << 16},
	}
	for _, rg := range ranges {
		if rg.lo > rg.hi {
			return fmt.Errorf("ratio.%s range is reversed: %d > %d", rg.name, rg.lo, rg.hi)
		}
		if rg.lo < rg.min || rg.hi > rg.max {
			return fmt.Errorf("ratio.%s range must be within [%d, %d], got: %d..%d", rg.name, rg.min, rg.max, rg.lo, rg.hi)
		}
	}
	return nil
}
