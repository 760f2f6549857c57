package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sizing-lab/internal/indicators"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewAnalysisValidator().Validate(cfg))

	assert.Equal(t, "hist csv", cfg.Data.Folder)
	assert.Equal(t, "PnL", cfg.Data.PnLColumn)
	assert.Equal(t, 100000, cfg.Sweep.Sims)
	assert.Equal(t, 150, cfg.Sweep.PathLength)
	assert.Equal(t, 0.25, cfg.Sweep.RuinThreshold)
	assert.Equal(t, 3, cfg.Ratio.SweepPeriod)
	assert.Equal(t, 15.0, cfg.Ratio.FixedLower)
	assert.Equal(t, 70.0, cfg.Ratio.FixedUpper)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
seed: 7
data:
  folder: prices
  ticker: SPY
sweep:
  sims: 500
ratio:
  smoothing: wilder
  lower: 25
output:
  excel: false
`)
	m := NewManager().WithLookup(envMap(map[string]string{
		EnvResultsDir: "out",
		EnvWorkers:    "3",
	}))

	cfg, err := m.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "prices", cfg.Data.Folder)
	assert.Equal(t, "SPY", cfg.Data.Ticker)
	assert.Equal(t, "TLT", cfg.Data.Base)
	assert.Equal(t, 500, cfg.Sweep.Sims)
	assert.Equal(t, 100, cfg.Sweep.Steps)
	assert.Equal(t, "out", cfg.Output.ResultsDir)
	assert.False(t, cfg.Output.Excel)
	assert.True(t, cfg.Output.CSV)

	params, err := cfg.RatioParams()
	require.NoError(t, err)
	assert.Equal(t, indicators.SmoothingWilder, params.Smoothing)
	assert.Equal(t, 25.0, params.Lower)

	sc := cfg.SweepConfig()
	assert.Equal(t, int64(7), sc.Seed)
	assert.Equal(t, 3, sc.Workers)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "seed: 7\ndata:\n  folder: prices\n")
	m := NewManager().WithLookup(envMap(map[string]string{EnvSeed: "99", EnvDataDir: "/data"}))

	cfg, err := m.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, "/data", cfg.Data.Folder)
}

func TestLoadConfig_Errors(t *testing.T) {
	m := NewManager().WithLookup(noEnv)

	_, err := m.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = m.LoadConfig(writeFile(t, "bad.yaml", "sweep: [1, 2"))
	assert.Error(t, err)

	_, err = NewManager().WithLookup(envMap(map[string]string{EnvSeed: "abc"})).LoadConfig(writeFile(t, "ok.yaml", "seed: 1\n"))
	assert.Error(t, err)
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewManager().WithLookup(noEnv).LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidator_RejectsBadSections(t *testing.T) {
	cases := map[string]func(*Config){
		"sims":         func(c *Config) { c.MonteCarlo.Sims = 0 },
		"threshold":    func(c *Config) { c.Sweep.RuinThreshold = 1.5 },
		"steps":        func(c *Config) { c.Sweep.Steps = 0 },
		"thresholds":   func(c *Config) { c.Ratio.Lower, c.Ratio.Upper = 80, 20 },
		"period":       func(c *Config) { c.Ratio.Period = 0 },
		"smoothing":    func(c *Config) { c.Ratio.Smoothing = "ema" },
		"range":        func(c *Config) { c.Ratio.LowerStart, c.Ratio.LowerEnd = 50, 5 },
		"lookback":     func(c *Config) { c.Ratio.LookbackStart = 0 },
		"max risk":     func(c *Config) { c.Kelly.MaxRisk = 2 },
		"dates":        func(c *Config) { c.Data.Start, c.Data.End = "2024-05-01", "2024-01-01" },
		"column":       func(c *Config) { c.Data.PnLColumn = "" },
		"workers":      func(c *Config) { c.Workers = -1 },
		"loss grid":    func(c *Config) { c.Kelly.LossGridMax = 0 },
		"sweep period": func(c *Config) { c.Ratio.SweepPeriod = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, NewAnalysisValidator().Validate(cfg))
		})
	}
}

func TestDateRange(t *testing.T) {
	start, end, err := DataConfig{Start: "2020-01-02", End: "Mar 5, 2021"}.DateRange()
	require.NoError(t, err)
	assert.Equal(t, 2020, start.Year())
	assert.Equal(t, 5, end.Day())

	start, end, err = DataConfig{}.DateRange()
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	_, _, err = DataConfig{Start: "not a date"}.DateRange()
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	m := NewManager().WithLookup(noEnv)
	cfg := DefaultConfig()
	cfg.Seed = 11
	cfg.Ratio.Smoothing = "wilder"

	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	require.NoError(t, m.SaveConfig(cfg, path))

	loaded, err := m.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadEnvFile(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	path := writeFile(t, "test.env", "SIZING_TEST_ONLY_VAR=hello\n")
	t.Cleanup(func() { os.Unsetenv("SIZING_TEST_ONLY_VAR") })
	require.NoError(t, m.LoadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv("SIZING_TEST_ONLY_VAR"))
}

func TestReportingConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.CSV, cfg.Output.Excel, cfg.Output.JSON = false, false, false

	rc := cfg.ReportingConfig(true)
	assert.False(t, rc.EnableConsole)
	assert.False(t, rc.EnableFiles)
	assert.True(t, rc.EnableCharts)
	assert.Equal(t, "results", rc.OutputDirectory)
}
