package config

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/indicators"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
	"github.com/ducminhle1904/sizing-lab/pkg/data"
	"github.com/ducminhle1904/sizing-lab/pkg/reporting"
)

// Config is the full analysis configuration
type Config struct {
	// Seed drives every random generator; 0 picks one per run
	Seed int64 `yaml:"seed"`
	// Workers bounds parallel evaluation; 0 uses every CPU
	Workers int `yaml:"workers"`

	Data       DataConfig       `yaml:"data"`
	Kelly      KellyConfig      `yaml:"kelly"`
	MonteCarlo MonteCarloConfig `yaml:"montecarlo"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Ratio      RatioConfig      `yaml:"ratio"`
	Output     OutputConfig     `yaml:"output"`
}

// DataConfig locates the input files
type DataConfig struct {
	Folder    string `yaml:"folder"`
	PnLFile   string `yaml:"pnl_file"`
	PnLColumn string `yaml:"pnl_column"`
	Ticker    string `yaml:"ticker"`
	Base      string `yaml:"base"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
}

// KellyConfig holds the closed-form sizing parameters
type KellyConfig struct {
	RiskFree      float64 `yaml:"risk_free"`
	LossGridMin   float64 `yaml:"loss_grid_min"`
	LossGridMax   float64 `yaml:"loss_grid_max"`
	LossGridSteps int     `yaml:"loss_grid_points"`
	MaxRisk       float64 `yaml:"max_risk"`
	RiskPoints    int     `yaml:"risk_points"`
	Trades        int     `yaml:"trades"`
	Shuffles      int     `yaml:"shuffles"`
}

// MonteCarloConfig holds the resampling parameters
type MonteCarloConfig struct {
	Sims      int     `yaml:"sims"`
	RiskFree  float64 `yaml:"risk_free"`
	KeepPaths bool    `yaml:"keep_paths"`
}

// SweepConfig holds the Kelly fraction sweep parameters
type SweepConfig struct {
	Steps         int     `yaml:"steps"`
	GridLow       float64 `yaml:"grid_low"`
	GridHigh      float64 `yaml:"grid_high"`
	Sims          int     `yaml:"sims"`
	PathLength    int     `yaml:"path_length"`
	RuinThreshold float64 `yaml:"ruin_threshold"`
	RiskFree      float64 `yaml:"risk_free"`
}

// RatioConfig holds the rotation strategy and its sweep ranges
type RatioConfig struct {
	Period    int     `yaml:"period"`
	Lower     float64 `yaml:"lower"`
	Upper     float64 `yaml:"upper"`
	Smoothing string  `yaml:"smoothing"`

	SweepPeriod   int     `yaml:"sweep_period"`
	FixedLower    float64 `yaml:"fixed_lower"`
	FixedUpper    float64 `yaml:"fixed_upper"`
	LowerStart    int     `yaml:"lower_start"`
	LowerEnd      int     `yaml:"lower_end"`
	UpperStart    int     `yaml:"upper_start"`
	UpperEnd      int     `yaml:"upper_end"`
	LookbackStart int     `yaml:"lookback_start"`
	LookbackEnd   int     `yaml:"lookback_end"`
}

// OutputConfig selects the report artefacts
type OutputConfig struct {
	ResultsDir  string `yaml:"results_dir"`
	LogDir      string `yaml:"log_dir"`
	Charts      bool   `yaml:"charts"`
	CSV         bool   `yaml:"csv"`
	Excel       bool   `yaml:"excel"`
	JSON        bool   `yaml:"json"`
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultConfig returns the stock analysis parameters
func DefaultConfig() *Config {
	params := backtest.DefaultParams()
	return &Config{
		Data: DataConfig{
			Folder:    DefaultDataFolder,
			PnLFile:   DefaultPnLFile,
			PnLColumn: data.DefaultPnLColumn,
			Ticker:    DefaultTicker,
			Base:      DefaultBase,
		},
		Kelly: KellyConfig{
			LossGridMin:   sizing.DefaultLossGridMin,
			LossGridMax:   sizing.DefaultLossGridMax,
			LossGridSteps: sizing.DefaultLossGridPoints,
			MaxRisk:       sizing.DefaultMaxRisk,
			RiskPoints:    sizing.DefaultRiskPoints,
		},
		MonteCarlo: MonteCarloConfig{
			Sims:      montecarlo.DefaultSimulations,
			KeepPaths: true,
		},
		Sweep: SweepConfig{
			Steps:         montecarlo.DefaultSweepSteps,
			GridLow:       montecarlo.DefaultGridLow,
			GridHigh:      montecarlo.DefaultGridHigh,
			Sims:          montecarlo.DefaultSweepSims,
			PathLength:    montecarlo.DefaultPathLength,
			RuinThreshold: montecarlo.DefaultRuinThreshold,
		},
		Ratio: RatioConfig{
			Period:        params.Period,
			Lower:         params.Lower,
			Upper:         params.Upper,
			Smoothing:     string(params.Smoothing),
			SweepPeriod:   backtest.DefaultSweepPeriod,
			FixedLower:    backtest.DefaultFixedLower,
			FixedUpper:    backtest.DefaultFixedUpper,
			LowerStart:    backtest.DefaultLowerStart,
			LowerEnd:      backtest.DefaultLowerEnd,
			UpperStart:    backtest.DefaultUpperStart,
			UpperEnd:      backtest.DefaultUpperEnd,
			LookbackStart: backtest.DefaultLookbackStart,
			LookbackEnd:   backtest.DefaultLookbackEnd,
		},
		Output: OutputConfig{
			ResultsDir: DefaultResultsDir,
			LogDir:     DefaultLogDir,
			Charts:     true,
			CSV:        true,
			Excel:      true,
			JSON:       true,
		},
	}
}

// DateRange parses the optional start and end dates. Empty bounds are zero.
func (d DataConfig) DateRange() (start, end time.Time, err error) {
	if d.Start != "" {
		if start, err = dateparse.ParseAny(d.Start); err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", d.Start, err)
		}
	}
	if d.End != "" {
		if end, err = dateparse.ParseAny(d.End); err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", d.End, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("end date %s is before start date %s", d.End, d.Start)
	}
	return start, end, nil
}

// SweepConfig builds the Kelly sweep configuration
func (c *Config) SweepConfig() montecarlo.SweepConfig {
	return montecarlo.SweepConfig{
		RiskFree:      c.Sweep.RiskFree,
		Steps:         c.Sweep.Steps,
		GridLow:       c.Sweep.GridLow,
		GridHigh:      c.Sweep.GridHigh,
		Sims:          c.Sweep.Sims,
		PathLength:    c.Sweep.PathLength,
		RuinThreshold: c.Sweep.RuinThreshold,
		Seed:          c.Seed,
		Workers:       c.Workers,
	}
}

// FixedFractionConfig builds the fixed fractional sweep configuration
func (c *Config) FixedFractionConfig() sizing.FixedFractionConfig {
	return sizing.FixedFractionConfig{
		MaxRisk:  c.Kelly.MaxRisk,
		Points:   c.Kelly.RiskPoints,
		Trades:   c.Kelly.Trades,
		Shuffles: c.Kelly.Shuffles,
		Seed:     c.Seed,
	}
}

// SimConfig builds a resampling configuration for sampler
func (c *Config) SimConfig(sampler montecarlo.Sampler) montecarlo.SimConfig {
	return montecarlo.SimConfig{
		Sims:      c.MonteCarlo.Sims,
		Sampler:   sampler,
		Seed:      c.Seed,
		KeepPaths: c.MonteCarlo.KeepPaths,
		RiskFree:  c.MonteCarlo.RiskFree,
	}
}

// RatioParams returns the strategy parameters of the single backtest
func (c *Config) RatioParams() (backtest.Params, error) {
	smoothing, err := indicators.ParseSmoothing(c.Ratio.Smoothing)
	if err != nil {
		return backtest.Params{}, err
	}
	return backtest.Params{
		Period:    c.Ratio.Period,
		Lower:     c.Ratio.Lower,
		Upper:     c.Ratio.Upper,
		Smoothing: smoothing,
	}, nil
}

// SweepParams returns the fixed parameters shared by the parameter sweeps
func (c *Config) SweepParams() (backtest.Params, error) {
	smoothing, err := indicators.ParseSmoothing(c.Ratio.Smoothing)
	if err != nil {
		return backtest.Params{}, err
	}
	return backtest.Params{
		Period:    c.Ratio.SweepPeriod,
		Lower:     c.Ratio.FixedLower,
		Upper:     c.Ratio.FixedUpper,
		Smoothing: smoothing,
	}, nil
}

// ReportingConfig maps the output section onto the reporter settings
func (c *Config) ReportingConfig(silent bool) reporting.ReportingConfig {
	files := c.Output.CSV || c.Output.Excel || c.Output.JSON
	return reporting.ReportingConfig{
		EnableConsole:   !silent,
		EnableFiles:     files,
		EnableCharts:    c.Output.Charts,
		OutputDirectory: c.Output.ResultsDir,
		ExcelEnabled:    c.Output.Excel,
		CSVEnabled:      c.Output.CSV,
		JSONEnabled:     c.Output.JSON,
	}
}
