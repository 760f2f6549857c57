package common

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sizing-lab/internal/errors"
	"github.com/ducminhle1904/sizing-lab/pkg/config"
)

func plainLogger(buf *bytes.Buffer) *Logger {
	l := NewLogger()
	l.ShowEmojis = false
	l.ShowColors = false
	l.SetOutput(buf)
	return l
}

func TestLogger_PlainPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := plainLogger(&buf)

	l.Info("loaded %d rows", 3)
	l.Warn("careful")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "[INFO]  loaded 3 rows")
	assert.Contains(t, out, "[WARN]  careful")
	assert.NotContains(t, out, "hidden")
}

func TestLogger_SilentKeepsErrors(t *testing.T) {
	var buf bytes.Buffer
	l := plainLogger(&buf)
	l.SetSilentMode(true)

	l.Header("title")
	l.Info("info")
	l.Success("done")
	l.Error("boom")

	assert.Equal(t, "[ERROR] boom\n", buf.String())
}

func TestLogger_ApplyFlags(t *testing.T) {
	l := NewLogger()
	l.Apply(&GlobalFlags{Verbose: true, NoEmojis: true, NoColors: true})

	assert.Equal(t, LogLevelDebug, l.Level)
	assert.False(t, l.ShowEmojis)
	assert.False(t, l.ShowColors)
	assert.False(t, l.SilentMode)
}

func TestFormatUtils(t *testing.T) {
	f := NewFormatUtils()
	assert.Equal(t, "100,000", f.FormatCount(100000))
	assert.Equal(t, "12.50%", f.FormatPercent(0.125, 2))
	assert.Equal(t, "1.5 kB", f.FormatFileSize(1500))
	assert.Equal(t, "250ms", f.FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", f.FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", f.FormatDuration(2*time.Minute))
}

func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator().
		ValidateInt("sims", 10, 1, 100).
		ValidateFloat("threshold", 0.25, 0, 1).
		ValidateChoice("smoothing", "wilder", []string{"simple", "wilder"})
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.GetError())

	v.ValidateRange("lower", 50, 5).
		ValidateFile("pnl", filepath.Join(t.TempDir(), "missing.csv"), true).
		ValidateDirectory("data", "", true)
	require.True(t, v.HasErrors())
	assert.Len(t, v.GetErrors(), 3)
	assert.Contains(t, v.GetError().Error(), "lower start 50 must not exceed end 5")
}

func newTestCommand(t *testing.T, args ...string) (*cobra.Command, *GlobalFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	flags := RegisterGlobalFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestApplyOverrides_OnlyChangedFlags(t *testing.T) {
	cmd, flags := newTestCommand(t, "--seed", "7", "--results-dir", "out", "--no-charts")
	cfg := config.DefaultConfig()
	cfg.Workers = 3

	flags.ApplyOverrides(cmd, cfg)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "out", cfg.Output.ResultsDir)
	assert.False(t, cfg.Output.Charts)
	assert.Equal(t, 3, cfg.Workers, "unset flag keeps the config value")
	assert.Equal(t, config.DefaultDataFolder, cfg.Data.Folder)
}

func TestStartSession_WritesRunLogAndMetrics(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	cfg := config.DefaultConfig()
	cfg.Output.LogDir = filepath.Join(dir, "logs")
	require.NoError(t, config.NewManager().SaveConfig(cfg, cfgPath))

	metricsPath := filepath.Join(dir, "metrics.prom")
	cmd, flags := newTestCommand(t,
		"--config", cfgPath,
		"--env", filepath.Join(dir, "none.env"),
		"--results-dir", filepath.Join(dir, "results"),
		"--metrics-file", metricsPath,
		"--seed", "42",
		"--silent",
	)
	defer DefaultLogger.SetSilentMode(false)

	s, err := StartSession(cmd, flags, "thorp")
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.Config.Seed)
	require.NotNil(t, s.Metrics)

	runErr := s.Finish(errors.NewDataError("thorp", "load", os.ErrNotExist))
	var ae *errors.AnalysisError
	require.ErrorAs(t, runErr, &ae)
	assert.Equal(t, errors.ErrorCategoryData, ae.Category)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `sizing_lab_errors_total{category="DATA"} 1`)

	logs, err := os.ReadDir(cfg.Output.LogDir)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLoadConfig_MissingFileAndRandomSeed(t *testing.T) {
	cmd, flags := newTestCommand(t, "--config", "", "--env", filepath.Join(t.TempDir(), "x.env"))
	flags.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := LoadConfig(cmd, flags)
	var ae *errors.AnalysisError
	require.ErrorAs(t, err, &ae, "explicit config path must exist")
	assert.Equal(t, errors.ErrorCategoryConfiguration, ae.Category)

	flags.ConfigFile = ""
	cfg, err := LoadConfig(cmd, flags)
	require.NoError(t, err)
	assert.NotZero(t, cfg.Seed)
}

func TestExecute_ExitCodes(t *testing.T) {
	var buf bytes.Buffer
	prev := DefaultLogger.Writer()
	DefaultLogger.SetOutput(&buf)
	defer DefaultLogger.SetOutput(prev)

	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{errors.NewValidationError("x", "flags", "bad"), 2},
		{errors.WrapError(context.Canceled, errors.ErrorCategoryCancelled, "x", "run"), 130},
		{assert.AnError, 1},
	}
	for _, tc := range cases {
		root := &cobra.Command{
			Use:           "x",
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE:          func(*cobra.Command, []string) error { return tc.err },
		}
		root.SetArgs([]string{})
		assert.Equal(t, tc.code, Execute(root))
	}
	assert.Contains(t, buf.String(), "bad")
}

func TestWrapAndRequire(t *testing.T) {
	assert.NoError(t, Wrap(nil, errors.ErrorCategoryOutput, "x", "y"))

	inner := errors.NewValidationError("a", "b", "c")
	assert.Same(t, inner, Wrap(inner, errors.ErrorCategoryOutput, "x", "y"))

	var ae *errors.AnalysisError
	require.ErrorAs(t, Wrap(assert.AnError, errors.ErrorCategoryOutput, "x", "y"), &ae)
	assert.Equal(t, errors.ErrorCategoryOutput, ae.Category)

	assert.NoError(t, Require(true, "x", "unused"))
	assert.ErrorContains(t, Require(false, "x", "sims must be positive, got %d", 0), "sims must be positive, got 0")
}

func TestProgressBar_SilentIsNoop(t *testing.T) {
	DefaultLogger.SetSilentMode(true)
	defer DefaultLogger.SetSilentMode(false)

	bar := NewProgressBar(10, "x")
	assert.NotPanics(t, func() {
		bar.Update(5, 10)
		bar.Finish()
	})
}

func TestProgressBar_WritesToLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := DefaultLogger.Writer()
	DefaultLogger.SetOutput(&buf)
	defer DefaultLogger.SetOutput(prev)

	bar := NewProgressBar(4, "grid")
	bar.Update(2, 4)
	bar.Update(4, 4)
	bar.Finish()

	assert.Contains(t, buf.String(), "grid")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("terminal closed")
}

func TestProgressBar_LogsWriteErrorsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := plainLogger(&buf)
	log.Level = LogLevelDebug

	bar := newProgressBar(4, "grid", failingWriter{}, log)
	assert.NotPanics(t, func() {
		bar.Update(2, 4)
		bar.Finish()
	})

	out := buf.String()
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, "Progress bar newline failed: terminal closed")

	buf.Reset()
	log.Level = LogLevelInfo
	quiet := newProgressBar(4, "grid", failingWriter{}, log)
	quiet.Update(4, 4)
	quiet.Finish()
	assert.Empty(t, buf.String())
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "kelly-lab")
	assert.Contains(t, buf.String(), "kelly-lab v"+ProjectVersion)
	assert.Contains(t, GetFullVersion(), ProjectVersion)
	assert.Equal(t, ProjectName, GetVersionInfo().ProjectName)
}
