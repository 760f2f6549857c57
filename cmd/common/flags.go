package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/pkg/config"
)

// GlobalFlags holds the persistent flags shared by every subcommand
type GlobalFlags struct {
	// Environment and configuration
	ConfigFile string
	EnvFile    string
	DataDir    string
	ResultsDir string

	// Run
	Seed    int64
	Workers int

	// Logging and output
	Verbose     bool
	Silent      bool
	NoEmojis    bool
	NoColors    bool
	NoCharts    bool
	MetricsFile string
}

// RegisterGlobalFlags attaches the shared flags to cmd as persistent flags
func RegisterGlobalFlags(cmd *cobra.Command) *GlobalFlags {
	f := &GlobalFlags{}
	pf := cmd.PersistentFlags()

	pf.StringVarP(&f.ConfigFile, "config", "c", "", "YAML configuration file (default "+config.DefaultConfigFile+" when present)")
	pf.StringVar(&f.EnvFile, "env", config.DefaultEnvFile, "Environment file path")
	pf.StringVar(&f.DataDir, "data-dir", "", "Folder holding the input CSV files")
	pf.StringVar(&f.ResultsDir, "results-dir", "", "Root directory for run outputs")

	pf.Int64Var(&f.Seed, "seed", 0, "Random seed (0 picks one per run)")
	pf.IntVar(&f.Workers, "workers", 0, "Parallel workers (0 uses every CPU)")

	pf.BoolVarP(&f.Verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&f.Silent, "silent", "s", false, "Minimal console output")
	pf.BoolVar(&f.NoEmojis, "no-emojis", false, "Disable emoji output")
	pf.BoolVar(&f.NoColors, "no-colors", false, "Disable colored output")
	pf.BoolVar(&f.NoCharts, "no-charts", false, "Skip chart rendering")
	pf.StringVar(&f.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	return f
}

// ApplyOverrides copies the flags the user set explicitly onto cfg. Flags
// take precedence over the environment and the YAML file.
func (f *GlobalFlags) ApplyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Data.Folder = f.DataDir
	}
	if flags.Changed("results-dir") {
		cfg.Output.ResultsDir = f.ResultsDir
	}
	if flags.Changed("seed") {
		cfg.Seed = f.Seed
	}
	if flags.Changed("workers") {
		cfg.Workers = f.Workers
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.MetricsFile
	}
	if f.NoCharts {
		cfg.Output.Charts = false
	}
}

// FlagValidator provides flag validation utilities
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value float64, min, max float64) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %g and %g, got: %g", name, min, max, value))
	}
	return v
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateRange validates an inclusive integer range
func (v *FlagValidator) ValidateRange(name string, lo, hi int) *FlagValidator {
	if lo > hi {
		v.errors = append(v.errors, fmt.Sprintf("%s start %d must not exceed end %d", name, lo, hi))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// ValidateDirectory validates that a directory exists
func (v *FlagValidator) ValidateDirectory(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s directory does not exist: %s", name, path))
	} else if err == nil && !info.IsDir() {
		v.errors = append(v.errors, fmt.Sprintf("%s is not a directory: %s", name, path))
	}
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *FlagValidator) GetErrors() []string {
	return v.errors
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}
