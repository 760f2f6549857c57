package config

// Package config provides configuration management for the sizing and
// ratio analyses

// Validator checks a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// Environment variables that override file values
const (
	EnvDataDir    = "SIZING_DATA_DIR"
	EnvResultsDir = "SIZING_RESULTS_DIR"
	EnvSeed       = "SIZING_SEED"
	EnvWorkers    = "SIZING_WORKERS"
)

// Common configuration constants
const (
	DefaultConfigFile = "sizing-lab.yaml"
	DefaultEnvFile    = ".env"

	DefaultDataFolder = "hist csv"
	DefaultPnLFile    = "trades.csv"
	DefaultTicker     = "QQQ"
	DefaultBase       = "TLT"

	DefaultResultsDir = "results"
	DefaultLogDir     = "logs"

	// Validation limits
	MaxRSIThreshold = 100.0
	MaxRuinLevel    = 1.0
)
