package contract

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/powerrank/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit         = 50
	MaxResultLimit             = 1000
	DefaultNewsWindow          = "30d"
	DefaultMaxDuplicatePct     = 20.0
	DefaultMinMovementCoverage = 0.5
	DefaultSchedule            = "0 6 1 * *" // 06:00 on the first day of every month
)

// DefaultWorkers is the default number of concurrent scoring workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for a powerrank command.
// This struct remains the "final, validated" config.
type Config struct {
	ToolsFile    string
	NewsFile     string
	PreviousFile string
	InputFile    string // payload file for validate
	SnapshotID   string // stored snapshot for validate and promote
	ToolID       string // tool for history

	AlgorithmVersion string
	AlgorithmsFile   string
	Registry         *schema.Registry
	Algorithm        *schema.AlgorithmConfig

	Period     string
	At         time.Time
	NewsWindow time.Duration

	Workers     int
	ResultLimit int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // terminal width override (0 = auto-detect)
	UseColors   bool

	Force  bool // promote even when validation fails
	DryRun bool // skip persistence

	Thresholds schema.ValidationThresholds

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	Schedule string
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ThresholdsRawInput holds validation thresholds from the YAML config file.
type ThresholdsRawInput struct {
	MaxDuplicatePct     *float64 `mapstructure:"max-duplicate-pct"`
	MinMovementCoverage *float64 `mapstructure:"min-movement-coverage"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Algorithm      string `mapstructure:"algorithm"`
	AlgorithmsFile string `mapstructure:"algorithms-file"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Fields from rankCmd.Flags() ---
	Tools      string `mapstructure:"tools"`
	News       string `mapstructure:"news"`
	Previous   string `mapstructure:"previous"`
	Period     string `mapstructure:"period"`
	At         string `mapstructure:"at"`
	NewsWindow string `mapstructure:"news-window"`
	Force      bool   `mapstructure:"force"`
	DryRun     bool   `mapstructure:"dry-run"`

	// --- Fields from validateCmd.Flags() ---
	SnapshotID          string `mapstructure:"snapshot-id"`
	Input               string `mapstructure:"input"`
	MaxDuplicatePct     string `mapstructure:"max-duplicate-pct"`
	MinMovementCoverage string `mapstructure:"min-movement-coverage"`

	// --- Fields from scheduleCmd.Flags() ---
	Schedule string `mapstructure:"schedule"`

	// --- Thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a copy of the Config struct. The registry is shared as it is read-only.
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
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processAlgorithm(cfg, input); err != nil {
		return err
	}
	if err := processTimeInputs(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
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
		if !strings.Contains(connStr, "parseTime=true") {
			return fmt.Errorf("MySQL connection string must set parseTime=true")
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

// validateBackendConfigs validates the snapshot store configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
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

// validateSimpleInputs processes and validates all fields that need no lookups.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.ToolsFile = strings.TrimSpace(input.Tools)
	cfg.NewsFile = strings.TrimSpace(input.News)
	cfg.PreviousFile = strings.TrimSpace(input.Previous)
	cfg.InputFile = strings.TrimSpace(input.Input)
	cfg.SnapshotID = strings.TrimSpace(input.SnapshotID)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Force = input.Force
	cfg.DryRun = input.DryRun

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.Schedule = strings.TrimSpace(input.Schedule)
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	return nil
}

// processAlgorithm loads the registry with any extra algorithms file and resolves the requested version.
func processAlgorithm(cfg *Config, input *ConfigRawInput) error {
	cfg.AlgorithmsFile = strings.TrimSpace(input.AlgorithmsFile)

	var reg *schema.Registry
	var err error
	if cfg.AlgorithmsFile != "" {
		extra, readErr := os.ReadFile(cfg.AlgorithmsFile)
		if readErr != nil {
			return fmt.Errorf("cannot read algorithms file: %w", readErr)
		}
		reg, err = schema.LoadRegistry(extra)
	} else {
		reg, err = schema.DefaultRegistry()
	}
	if err != nil {
		return err
	}
	cfg.Registry = reg

	cfg.AlgorithmVersion = strings.TrimSpace(input.Algorithm)
	if cfg.AlgorithmVersion == "" {
		cfg.AlgorithmVersion = schema.DefaultAlgorithmVersion
	}
	algo, err := reg.Get(cfg.AlgorithmVersion)
	if err != nil {
		return err
	}
	cfg.Algorithm = algo
	return nil
}

// processTimeInputs resolves the evaluation time, period and news window.
func processTimeInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.At = time.Now().UTC().Truncate(time.Second)
	if strings.TrimSpace(input.At) != "" {
		at, err := ParseEvaluationTime(input.At)
		if err != nil {
			return fmt.Errorf("invalid --at value: %w", err)
		}
		cfg.At = at
	}

	cfg.Period = strings.TrimSpace(input.Period)
	if cfg.Period == "" {
		cfg.Period = schema.PeriodOf(cfg.At)
	} else if _, err := schema.ParsePeriod(cfg.Period); err != nil {
		return err
	}

	window := input.NewsWindow
	if strings.TrimSpace(window) == "" {
		window = DefaultNewsWindow
	}
	d, err := ParseWindowDuration(window)
	if err != nil {
		return fmt.Errorf("invalid --news-window value: %w", err)
	}
	cfg.NewsWindow = d
	return nil
}

// processThresholds resolves validation thresholds. Flags take precedence over the config file.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	cfg.Thresholds = schema.ValidationThresholds{
		MaxDuplicatePct:     DefaultMaxDuplicatePct,
		MinMovementCoverage: DefaultMinMovementCoverage,
	}
	if input.Thresholds.MaxDuplicatePct != nil {
		cfg.Thresholds.MaxDuplicatePct = *input.Thresholds.MaxDuplicatePct
	}
	if input.Thresholds.MinMovementCoverage != nil {
		cfg.Thresholds.MinMovementCoverage = *input.Thresholds.MinMovementCoverage
	}
	if s := strings.TrimSpace(input.MaxDuplicatePct); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid --max-duplicate-pct value: %w", err)
		}
		cfg.Thresholds.MaxDuplicatePct = v
	}
	if s := strings.TrimSpace(input.MinMovementCoverage); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid --min-movement-coverage value: %w", err)
		}
		cfg.Thresholds.MinMovementCoverage = v
	}

	if cfg.Thresholds.MaxDuplicatePct < 0 || cfg.Thresholds.MaxDuplicatePct > 100 {
		return fmt.Errorf("max-duplicate-pct must be between 0 and 100 (received %.2f)", cfg.Thresholds.MaxDuplicatePct)
	}
	if cfg.Thresholds.MinMovementCoverage < 0 || cfg.Thresholds.MinMovementCoverage > 1 {
		return fmt.Errorf("min-movement-coverage must be between 0 and 1 (received %.2f)", cfg.Thresholds.MinMovementCoverage)
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
