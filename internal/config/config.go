// =============================================================================
// Vessel Flow Parser - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. Settings come from three layers, later layers winning:
//
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The YAML config file (config.yaml by default)
//   3. Environment variables prefixed with FLOWPARSER_ (e.g. FLOWPARSER_SINK)
//
// The core transformation has no configuration of its own; everything here
// belongs to the hosting layer: where files come from, where records go, and
// which policy applies when a row or a record cannot be processed.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when no --config flag is given. A missing default
// file is not an error; built-in defaults apply.
const DefaultConfigFile = "config.yaml"

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "FLOWPARSER"

// =============================================================================
// POLICIES
// =============================================================================

// Sink names.
const (
	SinkXML    = "xml"
	SinkSQLite = "sqlite"
)

// CommitFailurePolicy decides what happens to a record whose fields could not
// all be committed.
type CommitFailurePolicy string

const (
	// CommitFailureEmit rolls back the staged fields and still pushes the
	// (now empty) record.
	CommitFailureEmit CommitFailurePolicy = "emit"

	// CommitFailureSkip rolls back the staged fields and pushes nothing.
	CommitFailureSkip CommitFailurePolicy = "skip"
)

// DateErrorPolicy decides what happens when a row carries an unparsable date.
type DateErrorPolicy string

const (
	// DateErrorAbort stops processing of the sheet.
	DateErrorAbort DateErrorPolicy = "abort"

	// DateErrorSkip drops the row and continues.
	DateErrorSkip DateErrorPolicy = "skip"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xlsx and .csv files to process.
	// Default: "./input"
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`

	// OutputDir receives XML output files and run summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" envconfig:"INPUT_ARCHIVE_DIR"`

	// ArchiveOnSuccess moves processed inputs to InputArchiveDir.
	// Default: false
	ArchiveOnSuccess bool `yaml:"archive_on_success" envconfig:"ARCHIVE_ON_SUCCESS"`

	// =========================================================================
	// SINK SETTINGS
	// =========================================================================

	// Sink selects where records are pushed: "xml" or "sqlite".
	// Default: "xml"
	Sink string `yaml:"sink" envconfig:"SINK" validate:"oneof=xml sqlite"`

	// SQLitePath is the database file used by the sqlite sink.
	// Default: "./output/flows.db"
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`

	// OutputNameFormat names XML output files.
	// Placeholders:
	//   {uuid}      - The run id
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	// Default: "{original}_{timestamp}.xml"
	OutputNameFormat string `yaml:"output_name_format" envconfig:"OUTPUT_NAME_FORMAT"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=text json"`

	// MetricsFile, when set, receives the run counters in Prometheus text
	// format after processing.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Workers is the number of goroutines deriving records in parallel.
	// Records are always emitted in sheet order.
	// Default: 1
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`

	// MinRowCells is the minimum number of cells a data row must carry.
	// Narrower rows are skipped. Values below 23 are raised to 23.
	// Default: 23
	MinRowCells int `yaml:"min_row_cells" envconfig:"MIN_ROW_CELLS" validate:"gte=0"`

	// IncludeLastRow processes the sheet's last row too. The upstream
	// format has historically excluded it.
	// Default: false
	IncludeLastRow bool `yaml:"include_last_row" envconfig:"INCLUDE_LAST_ROW"`

	// OnCommitFailure is "emit" or "skip".
	// Default: "emit"
	OnCommitFailure CommitFailurePolicy `yaml:"on_commit_failure" envconfig:"ON_COMMIT_FAILURE" validate:"oneof=emit skip"`

	// OnDateError is "abort" or "skip".
	// Default: "abort"
	OnDateError DateErrorPolicy `yaml:"on_date_error" envconfig:"ON_DATE_ERROR" validate:"oneof=abort skip"`

	// TimeZone is the IANA zone source dates are interpreted in.
	// Default: "Local"
	TimeZone string `yaml:"time_zone" envconfig:"TIME_ZONE"`

	// CSV contains settings for CSV input files.
	CSV CSVSettings `yaml:"csv" envconfig:"CSV"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigFile:
		// No config file: defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.Sink == "" {
		config.Sink = SinkXML
	}
	if config.SQLitePath == "" {
		config.SQLitePath = "./output/flows.db"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{original}_{timestamp}.xml"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.Workers == 0 {
		config.Workers = 1
	}
	if config.MinRowCells == 0 {
		config.MinRowCells = 23
	}
	if config.OnCommitFailure == "" {
		config.OnCommitFailure = CommitFailureEmit
	}
	if config.OnDateError == "" {
		config.OnDateError = DateErrorAbort
	}
	if config.TimeZone == "" {
		config.TimeZone = "Local"
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if err := validator.New().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: '%v')", fe.Field(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if _, err := config.Location(); err != nil {
		return err
	}

	if config.Sink == SinkSQLite && config.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required for the sqlite sink")
	}

	return nil
}

// Location resolves TimeZone.
func (c *MainConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
