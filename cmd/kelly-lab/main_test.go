package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sizing-lab/internal/errors"
	"github.com/ducminhle1904/sizing-lab/pkg/config"
)

type fixture struct {
	dir     string
	pnl     string
	config  string
	results string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("Date,PnL\n")
	pattern := []float64{0.02, -0.01, 0.03, -0.015, 0.01, -0.005}
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "2024-01-%02d,%g\n", i%28+1, pattern[i%len(pattern)])
	}
	pnl := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(pnl, []byte(b.String()), 0o644))

	cfg := config.DefaultConfig()
	cfg.Output.LogDir = filepath.Join(dir, "logs")
	cfgPath := filepath.Join(dir, "sizing-lab.yaml")
	require.NoError(t, config.NewManager().SaveConfig(cfg, cfgPath))

	return fixture{dir: dir, pnl: pnl, config: cfgPath, results: filepath.Join(dir, "results")}
}

func (f fixture) run(args ...string) error {
	root := newRootCmd()
	root.SetArgs(append(args,
		"--config", f.config,
		"--env", filepath.Join(f.dir, "none.env"),
		"--results-dir", f.results,
		"--pnl", f.pnl,
		"--seed", "11",
		"--silent",
		"--no-charts",
	))
	return root.ExecuteContext(context.Background())
}

// runDir returns the single output directory created for analysis
func (f fixture) runDir(t *testing.T, analysis string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.results, analysis+"_*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestBettingCommand_WritesCurve(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("betting", "--points", "20"))

	data, err := os.ReadFile(filepath.Join(f.runDir(t, "betting"), "kelly_curve.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "Avg_Loss,Kelly_Fraction", lines[0])
	assert.Len(t, lines, 21)
}

func TestFixedFractionCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("fixed-fraction", "--points", "10", "--max-risk", "0.5"))
	assert.FileExists(t, filepath.Join(f.runDir(t, "fixed_fraction"), "fixed_fraction.csv"))
}

func TestFixedFractionCommand_TradesDefaultsToEveryTrade(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"fixed-fraction"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("trades")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
	assert.Contains(t, flag.Usage, "every trade")
	assert.Contains(t, flag.Usage, "59")
}

func TestPermuteCommand_WritesSummary(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("permute", "--sims", "50"))

	raw, err := os.ReadFile(filepath.Join(f.runDir(t, "permutation"), "summary.json"))
	require.NoError(t, err)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.EqualValues(t, 50, summary["sims"])
	assert.EqualValues(t, 11, summary["seed"])
}

func TestSweepCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("sweep", "--steps", "5", "--sims", "100", "--path-length", "20", "--workers", "2"))

	dir := f.runDir(t, "kelly_sweep")
	assert.FileExists(t, filepath.Join(dir, "kelly_sweep.csv"))
	assert.FileExists(t, filepath.Join(dir, "kelly_sweep.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "summary.json"))
}

func TestMissingColumn_IsDataError(t *testing.T) {
	f := newFixture(t)
	err := f.run("thorp", "--column", "Profit")

	var ae *errors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, errors.ErrorCategoryData, ae.Category)
	assert.Equal(t, 1, ae.ExitCode())
}

func TestInvalidFlag_IsValidationError(t *testing.T) {
	f := newFixture(t)
	err := f.run("bootstrap", "--sims", "0")

	var ae *errors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, ae.ExitCode())
}
