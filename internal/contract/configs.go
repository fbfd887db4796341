package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/enrollcast/schema"
)

// Default values for configuration.
const (
	DefaultTargetYear            = 2029
	DefaultPrecision             = 1
	MaxPrecision                 = 3
	DefaultIntervalWidth         = 0.85
	DefaultChangepointPriorScale = 0.0005
	MinYear                      = 1900
	MaxYear                      = 3000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// SupportedInputExtensions lists the input file formats the loader understands.
var SupportedInputExtensions = map[string]struct{}{
	".csv":     {},
	".parquet": {},
}

// ErrInputRequired is returned when a command needs an input file and none was given.
var ErrInputRequired = errors.New("an input file is required (positional argument or --input)")

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for forecasting.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath     string
	ProgramFilter string // Program code resolved from a code or display name
	TargetYear    int
	CurrentYear   int // Resolved to the wall-clock year when not set
	Workers       int
	Precision     int
	Output        schema.OutputMode
	OutputFile    string
	Width         int // Terminal width override (0 = auto-detect)
	Persist       bool

	IntervalWidth         float64
	ChangepointPriorScale float64

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Input                 string  `mapstructure:"input"`
	Program               string  `mapstructure:"program"`
	TargetYear            int     `mapstructure:"target-year"`
	CurrentYear           int     `mapstructure:"current-year"`
	Workers               int     `mapstructure:"workers"`
	Precision             int     `mapstructure:"precision"`
	Output                string  `mapstructure:"output"`
	OutputFile            string  `mapstructure:"output-file"`
	Width                 int     `mapstructure:"width"`
	IntervalWidth         float64 `mapstructure:"interval-width"`
	ChangepointPriorScale float64 `mapstructure:"changepoint-prior-scale"`
	StoreBackend          string  `mapstructure:"store-backend"`
	StoreDBConnect        string  `mapstructure:"store-db-connect"`
	Emoji                 string  `mapstructure:"emoji"`
	Color                 string  `mapstructure:"color"`

	// --- Fields from forecastCmd.Flags() ---
	Persist bool `mapstructure:"persist"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processForecastParams(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := resolveInputPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the forecast store configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend := input.StoreBackend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates the output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Persist = input.Persist
	cfg.ProgramFilter = ""
	if p := strings.TrimSpace(input.Program); p != "" {
		cfg.ProgramFilter = schema.ResolveProgramCode(p)
	}

	emojis, err := parseOptionalBool(input.Emoji, false)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := parseOptionalBool(input.Color, true)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return nil
}

// processForecastParams validates the forecast horizon and the fitter tunables.
func processForecastParams(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.TargetYear = input.TargetYear
	if cfg.TargetYear == 0 {
		cfg.TargetYear = DefaultTargetYear
	}
	if cfg.TargetYear < MinYear || cfg.TargetYear > MaxYear {
		return fmt.Errorf("target-year must be between %d and %d (received %d)", MinYear, MaxYear, input.TargetYear)
	}

	cfg.CurrentYear = input.CurrentYear
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = now.Year()
	}
	if cfg.CurrentYear < MinYear || cfg.CurrentYear > MaxYear {
		return fmt.Errorf("current-year must be between %d and %d (received %d)", MinYear, MaxYear, input.CurrentYear)
	}

	cfg.IntervalWidth = input.IntervalWidth
	if cfg.IntervalWidth == 0 {
		cfg.IntervalWidth = DefaultIntervalWidth
	}
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		return fmt.Errorf("interval-width must be in (0, 1) (received %.3f)", input.IntervalWidth)
	}

	cfg.ChangepointPriorScale = input.ChangepointPriorScale
	if cfg.ChangepointPriorScale == 0 {
		cfg.ChangepointPriorScale = DefaultChangepointPriorScale
	}
	if cfg.ChangepointPriorScale < 0 {
		return fmt.Errorf("changepoint-prior-scale must be positive (received %g)", input.ChangepointPriorScale)
	}

	return nil
}

// resolveInputPath picks the positional argument over --input and checks the file.
// A missing input is allowed here; commands that need one report ErrInputRequired.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	path := strings.TrimSpace(input.InputPathStr)
	if path == "" {
		path = strings.TrimSpace(input.Input)
	}
	if path == "" {
		cfg.InputPath = ""
		return nil
	}

	if err := ValidateInputPath(path); err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cfg.InputPath = filepath.Clean(absPath)
	return nil
}

// ValidateInputPath checks that path is an existing regular file with a supported extension.
func ValidateInputPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := SupportedInputExtensions[ext]; !ok {
		return fmt.Errorf("unsupported input format %q. must be .csv or .parquet", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory", path)
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// parseOptionalBool parses s with ParseBoolString, returning fallback for an empty string.
func parseOptionalBool(s string, fallback bool) (bool, error) {
	if s == "" {
		return fallback, nil
	}
	return ParseBoolString(s)
}

// RevalidateForecast checks the fields a caller may override on a cloned Config,
// such as the MCP tools. The input path must be set.
func RevalidateForecast(cfg *Config) error {
	if cfg.InputPath == "" {
		return ErrInputRequired
	}
	if err := ValidateInputPath(cfg.InputPath); err != nil {
		return err
	}
	if cfg.TargetYear < MinYear || cfg.TargetYear > MaxYear {
		return fmt.Errorf("target-year must be between %d and %d (received %d)", MinYear, MaxYear, cfg.TargetYear)
	}
	if cfg.CurrentYear < MinYear || cfg.CurrentYear > MaxYear {
		return fmt.Errorf("current-year must be between %d and %d (received %d)", MinYear, MaxYear, cfg.CurrentYear)
	}
	return nil
}
