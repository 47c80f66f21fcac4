// =============================================================================
// Vessel Flow Parser - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// turning vessel movement sheets into flow records.
//
// COMMAND USAGE:
//   flowparser process [flags]
//
// FLAGS:
//   --dry-run : Run the full pipeline against an in-memory sink; nothing is
//               written, archived or logged to the output directory
//   --file    : Path to a specific file to process instead of the input dir
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover .xlsx and .csv files in the input directory
//   3. For each file, in order:
//      a. Decode the first sheet
//      b. Validate the header
//      c. Derive and emit one record per data row
//      d. Close the sink and archive the input
//   4. Write the error log, summary report and metrics textfile
//
// Files are processed one after another. A file that fails does not stop
// the files after it, but the command exits non-zero.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitaliisumka/workbook-parser/internal/config"
	"github.com/vitaliisumka/workbook-parser/internal/converter"
	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/metrics"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
	"github.com/vitaliisumka/workbook-parser/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun processes against an in-memory sink.
var dryRun bool

// filePath is the path to a specific file to process.
var filePath string

// Error types written to the error log.
const (
	errorTypeSchema      = "schema_mismatch"
	errorTypeDate        = "date_format"
	errorTypeUnsupported = "unsupported_input"
	errorTypeProcessing  = "processing"
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process vessel movement sheets into flow records",
	Long: `The process command scans the input directory for .xlsx and .csv files and
turns every data row of each sheet into a normalized flow record, written to the
configured sink (an XML document per file, or a SQLite table).

On successful processing:
  - The records are in the sink, tagged with the file's run id
  - The original file is moved to the input archive (archive_on_success)
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The original file remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing output or archiving input files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a specific file to process",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates a run over all input files.
func runProcess(ctx context.Context, out, stderr io.Writer) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, logger, err := loadConfig(stderr)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Vessel Flow Parser ===")

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
	files.ArchiveOnSuccess = mainConfig.ArchiveOnSuccess && !dryRun
	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES
	// =========================================================================

	recorder := metrics.NewRecorder()
	opts := []converter.Option{
		converter.WithLogger(logger),
		converter.WithMetrics(recorder),
		converter.WithFileManager(files),
	}
	if dryRun {
		opts = append(opts, converter.WithEmitterFactory(dryRunEmitter))
	}

	summary := utils.ProcessingSummary{StartTime: time.Now(), TotalFiles: len(inputFiles)}
	var errorEntries []utils.ErrorLogEntry

	for _, file := range inputFiles {
		if ctx.Err() != nil {
			break
		}

		result := converter.New(file, mainConfig, opts...).Run(ctx)
		addStats(&summary, result.Stats)

		if result.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				ArchivePath: result.ArchivePath,
				RunID:       result.RunID,
				Rows:        result.Stats.RowsRead,
				Records:     result.Stats.RecordsPushed,
				ProcessTime: result.ProcessingTime,
			})
			fmt.Fprintf(out, "  ✓ %s -> %s (%d records)\n",
				filepath.Base(result.FilePath), result.OutputFile, result.Stats.RecordsPushed)
			continue
		}

		entry := errorLogEntry(result.FilePath, result.Error, time.Now())
		errorEntries = append(errorEntries, entry)
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: entry.ErrorMessage,
			ErrorType:    entry.ErrorType,
		})
		fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 4: REPORTS
	// =========================================================================

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Records pushed:  %d\n", summary.TotalRecords)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		if err := writeReports(summary, errorEntries, mainConfig, out); err != nil {
			logger.Warn("failed to write reports", "error", err)
		}
	}

	if mainConfig.MetricsFile != "" {
		if err := recorder.WriteTextfile(mainConfig.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", mainConfig.MetricsFile, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("processing interrupted: %w", err)
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// dryRunEmitter backs --dry-run with an in-memory sink using the same field
// rules as the real sinks.
func dryRunEmitter(runID, outputPath string) (sink.Emitter, string, error) {
	return sink.NewMemory(validation.NewValidator()), "(dry run)", nil
}

func addStats(summary *utils.ProcessingSummary, stats converter.Stats) {
	summary.TotalRows += stats.RowsRead
	summary.TotalRecords += stats.RecordsPushed
	summary.TotalSkipped += stats.RowsSkipped
	summary.TotalRolledBack += stats.RecordsRolledBack
	summary.TotalDropped += stats.RecordsDropped
	summary.TotalFailedRows += stats.RowsFailed
}

// errorLogEntry classifies a file failure for the error log.
func errorLogEntry(path string, err error, now time.Time) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    now,
		FileName:     filepath.Base(path),
		ErrorType:    errorTypeProcessing,
		ErrorMessage: err.Error(),
	}

	var schemaErr *flow.SchemaMismatchError
	var dateErr *flow.DateFormatError
	switch {
	case errors.As(err, &schemaErr):
		entry.ErrorType = errorTypeSchema
		entry.Column = fmt.Sprintf("%d", schemaErr.Column)
		entry.Value = schemaErr.Actual
	case errors.As(err, &dateErr):
		entry.ErrorType = errorTypeDate
		entry.RowNumber = dateErr.Row
		entry.Column = dateErr.Column.Name()
		entry.Value = dateErr.Value
	case errors.Is(err, converter.ErrUnsupportedInput):
		entry.ErrorType = errorTypeUnsupported
	}
	return entry
}

func writeReports(summary utils.ProcessingSummary, entries []utils.ErrorLogEntry, mainConfig *config.MainConfig, out io.Writer) error {
	errorLog, err := utils.WriteErrorLog(entries, mainConfig.OutputDir, summary.EndTime)
	if err != nil {
		return err
	}
	if errorLog != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", errorLog)
	}

	summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Summary written to %s\n", summaryPath)
	return nil
}
