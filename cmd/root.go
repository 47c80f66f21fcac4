// =============================================================================
// Vessel Flow Parser - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'validate') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (flowparser)
//   ├── processCmd (flowparser process)
//   ├── validateCmd (flowparser validate)
//   ├── schemaCmd (flowparser schema)
//   └── versionCmd (flowparser version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration for subcommands
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitaliisumka/workbook-parser/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging regardless of log_level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "flowparser",
	Short: "Vessel Flow Parser - Turn vessel movement sheets into normalized flow records",

	Long: `Vessel Flow Parser reads vessel movement workbooks exported by upstream
trading systems and turns every data row into a normalized flow record.

Key Features:
  - Strict header check against the fixed 23 column layout
  - Direction aware load and discharge fields for exports and imports
  - Date normalization into the downstream encodings
  - XML document or SQLite record sinks
  - Automatic file archival on successful processing

Example Usage:
  flowparser process                      # Process all files in the input directory
  flowparser process --file ./flows.xlsx  # Process a single workbook
  flowparser process --config ./my.yaml   # Use a custom configuration file
  flowparser validate                     # Check headers without emitting records`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration and installs the default logger.
func loadConfig(stderr io.Writer) (*config.MainConfig, *slog.Logger, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	logger := newLogger(stderr, mainConfig.LogLevel, mainConfig.LogFormat, verbose)
	slog.SetDefault(logger)
	return mainConfig, logger, nil
}

// newLogger builds the slog logger described by log_level and log_format.
func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
