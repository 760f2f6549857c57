package common

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/internal/errors"
	"github.com/ducminhle1904/sizing-lab/internal/logger"
	"github.com/ducminhle1904/sizing-lab/internal/monitoring"
	"github.com/ducminhle1904/sizing-lab/pkg/config"
	"github.com/ducminhle1904/sizing-lab/pkg/data"
	"github.com/ducminhle1904/sizing-lab/pkg/reporting"
)

// Session bundles everything one analysis run needs: the resolved
// configuration, data access, the reporter, the run log and metrics.
type Session struct {
	Analysis string
	Config   *config.Config
	Data     *data.DataManager
	Reporter *reporting.ReportingManager
	Metrics  *monitoring.Metrics

	runLog  *logger.Logger
	started time.Time
}

// ConfigureLogging applies the global flags to the console logger and to
// the package level logrus logger used by the libraries
func ConfigureLogging(f *GlobalFlags) {
	DefaultLogger.Apply(f)

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:    f.NoColors,
		DisableTimestamp: true,
	})
	switch {
	case f.Verbose:
		logrus.SetLevel(logrus.DebugLevel)
	case f.Silent:
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// LoadConfig resolves the configuration in precedence order: flags, then
// environment, then the YAML file, then defaults
func LoadConfig(cmd *cobra.Command, f *GlobalFlags) (*config.Config, error) {
	manager := config.NewManager()
	if err := manager.LoadEnvFile(f.EnvFile); err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryConfiguration, "cli", "load env")
	}

	cfg, err := manager.LoadConfig(f.ConfigFile)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryConfiguration, "cli", "load config")
	}

	f.ApplyOverrides(cmd, cfg)
	if err := manager.ValidateConfig(cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryValidation, "cli", "validate flags")
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		Debug("No seed configured, using %d", cfg.Seed)
	}
	return cfg, nil
}

// StartSession loads the configuration and opens the run log and reporter
// for analysis
func StartSession(cmd *cobra.Command, f *GlobalFlags, analysis string) (*Session, error) {
	ConfigureLogging(f)

	cfg, err := LoadConfig(cmd, f)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Analysis: analysis,
		Config:   cfg,
		Data: data.NewDataManagerWithProviders(
			data.NewCSVPnLProviderWithColumn(cfg.Data.PnLColumn),
			data.NewCachedProvider(data.NewCSVPriceProvider()),
		),
		started: time.Now(),
	}

	if cfg.Output.MetricsFile != "" {
		s.Metrics = monitoring.NewMetrics()
	}

	if cfg.Output.LogDir != "" {
		runLog, err := logger.NewLoggerInDir(cfg.Output.LogDir, analysis)
		if err != nil {
			Warn("Run log disabled: %v", err)
		} else {
			s.runLog = runLog
			Debug("Run log: %s", runLog.GetLogPath())
		}
	}

	console := reporting.NewConsoleReporterTo(DefaultLogger.Writer())
	s.Reporter = reporting.NewReportingManager(cfg.ReportingConfig(f.Silent), analysis).WithConsole(console)

	s.LogParameters(map[string]interface{}{
		"seed":        cfg.Seed,
		"workers":     cfg.Workers,
		"data_folder": cfg.Data.Folder,
		"run_id":      s.Reporter.RunID(),
	})
	return s, nil
}

// LogParameters records run inputs in the run log
func (s *Session) LogParameters(params map[string]interface{}) {
	if s.runLog != nil {
		s.runLog.LogParameters(params)
	}
}

// LogResult records a result block in the run log
func (s *Session) LogResult(name string, values map[string]float64) {
	if s.runLog != nil {
		s.runLog.LogResult(name, values)
	}
}

// Finish lists the outputs, flushes metrics and closes the run log. The
// run error, if any, is categorized and returned.
func (s *Session) Finish(runErr error) error {
	var ae *errors.AnalysisError
	if runErr != nil {
		ae = errors.CategorizeError(runErr, s.Analysis, "run")
		s.Metrics.RecordError(string(ae.Category))
		if s.runLog != nil {
			s.runLog.LogError(s.Analysis, ae)
		}
	} else {
		s.Reporter.Finish()
	}

	if s.runLog != nil {
		s.runLog.LogOutputs(s.Reporter.Written())
		s.runLog.Info("completed in %s", FormatDuration(time.Since(s.started)))
		if err := s.runLog.Close(); err != nil {
			Warn("Could not close run log: %v", err)
		}
	}

	if err := s.Metrics.WriteTextfile(s.Config.Output.MetricsFile); err != nil {
		Warn("Could not write metrics to %s: %v", s.Config.Output.MetricsFile, err)
	} else if s.Metrics != nil {
		Debug("Metrics written to %s", s.Config.Output.MetricsFile)
	}

	if ae != nil {
		return ae
	}
	Success("%s finished in %s", s.Analysis, FormatDuration(time.Since(s.started)))
	return nil
}

// Execute runs root with a context cancelled on SIGINT or SIGTERM and
// returns the process exit code
func Execute(root *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	Error("%v", err)
	var ae *errors.AnalysisError
	if stderrors.As(err, &ae) {
		return ae.ExitCode()
	}
	return 1
}

// Wrap tags err with a category unless it already carries one
func Wrap(err error, category errors.ErrorCategory, component, operation string) error {
	if err == nil {
		return nil
	}
	var ae *errors.AnalysisError
	if stderrors.As(err, &ae) {
		return err
	}
	return errors.WrapError(err, category, component, operation)
}

// Require returns a validation error when cond is false
func Require(cond bool, component, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return errors.NewValidationError(component, "check input", fmt.Sprintf(format, args...))
}

// Revalidate checks the configuration again after subcommand flags have
// changed it
func (s *Session) Revalidate() error {
	if err := config.NewManager().ValidateConfig(s.Config); err != nil {
		return errors.WrapError(err, errors.ErrorCategoryValidation, s.Analysis, "validate flags")
	}
	return nil
}
