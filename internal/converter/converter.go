// =============================================================================
// Vessel Flow Parser - Converter Module
// =============================================================================
//
// This module orchestrates the processing of a single input file, from sheet
// decoding to the record sink.
//
// CONVERSION PIPELINE:
//   1. Decode the input sheet (.xlsx first sheet, or .csv)
//   2. Assign a run id and open the configured sink
//   3. Validate the header and emit one record per data row (see Pipeline)
//   4. Close the sink (the XML sink writes its document here)
//   5. Archive the input file on success
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitaliisumka/workbook-parser/internal/config"
	"github.com/vitaliisumka/workbook-parser/internal/csvparser"
	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/metrics"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/store/sqlite"
	"github.com/vitaliisumka/workbook-parser/internal/types"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
	"github.com/vitaliisumka/workbook-parser/internal/xlsxparser"
	"github.com/vitaliisumka/workbook-parser/internal/xmlwriter"
	"github.com/vitaliisumka/workbook-parser/pkg/utils"
)

// ErrUnsupportedInput is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedInput = errors.New("unsupported input file type")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// RunID identifies the records of this file in the sink.
	RunID string

	// OutputFile is the XML document or SQLite database written to.
	OutputFile string

	// ArchivePath is where the input was moved to, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains the row counts. They are filled in also on failure.
	Stats Stats

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger is the logging interface used by the converter. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger { return slog.Default() }

// =============================================================================
// OPTIONS
// =============================================================================

// EmitterFactory opens the sink for one run. outputPath is the XML document
// path derived from output_name_format.
type EmitterFactory func(runID, outputPath string) (sink.Emitter, string, error)

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Converter) { c.metrics = r }
}

// WithClock sets the clock used for default creation dates and file names.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithEmitterFactory replaces the sink selected by the configuration.
func WithEmitterFactory(f EmitterFactory) Option {
	return func(c *Converter) { c.openEmitter = f }
}

// WithFileManager sets the file manager used for archival.
func WithFileManager(fm *utils.FileManager) Option {
	return func(c *Converter) { c.files = fm }
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the processing of a single input file.
type Converter struct {
	filePath    string
	mainConfig  *config.MainConfig
	logger      Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	openEmitter EmitterFactory
	files       *utils.FileManager
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - filePath: The path to the input sheet.
//   - mainConfig: The main application configuration.
//   - opts: Optional logger, metrics, clock, sink and file manager overrides.
func New(filePath string, mainConfig *config.MainConfig, opts ...Option) *Converter {
	c := &Converter{
		filePath:   filePath,
		mainConfig: mainConfig,
		logger:     defaultLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewRecorder()
	}
	if c.openEmitter == nil {
		c.openEmitter = c.configuredEmitter
	}
	if c.files == nil {
		c.files = utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
		c.files.ArchiveOnSuccess = mainConfig.ArchiveOnSuccess
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := c.now()
	result = Result{FilePath: c.filePath}

	defer func() {
		result.ProcessingTime = c.now().Sub(startTime)
		c.metrics.FileDone(result.Error, result.ProcessingTime.Seconds())
	}()

	c.logger.Info("processing file", "file", c.filePath)

	// =========================================================================
	// STEP 1: DECODE SHEET
	// =========================================================================

	sheet, err := LoadSheet(c.filePath, c.mainConfig.CSV)
	if err != nil {
		result.Error = err
		return result
	}
	c.logger.Debug("sheet decoded", "sheet", sheet.Name, "rows", len(sheet.Rows))

	// =========================================================================
	// STEP 2: BUILD PIPELINE
	// =========================================================================

	pipeline, err := c.pipeline()
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 3: OPEN SINK
	// =========================================================================

	result.RunID = uuid.New().String()
	outputName := utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, map[string]string{
		"uuid":     result.RunID,
		"original": utils.OriginalName(c.filePath),
	}, startTime)

	emitter, target, err := c.openEmitter(result.RunID, filepath.Join(c.mainConfig.OutputDir, outputName))
	if err != nil {
		result.Error = fmt.Errorf("failed to open sink: %w", err)
		return result
	}
	result.OutputFile = target

	// =========================================================================
	// STEP 4: PROCESS ROWS
	// =========================================================================

	stats, procErr := pipeline.Process(ctx, sheet, emitter)
	result.Stats = stats

	if err := emitter.Close(); err != nil && procErr == nil {
		procErr = fmt.Errorf("failed to close sink: %w", err)
	}
	if procErr != nil {
		result.Error = procErr
		c.logger.Error("file failed", "file", c.filePath, "run_id", result.RunID, "error", procErr)
		return result
	}

	c.logger.Info("file processed",
		"file", c.filePath,
		"run_id", result.RunID,
		"output", result.OutputFile,
		"records", stats.RecordsPushed)

	// =========================================================================
	// STEP 5: ARCHIVE INPUT
	// =========================================================================

	archivePath, err := c.files.ArchiveInputFile(c.filePath)
	if err != nil {
		// Archival failure does not undo the records already pushed.
		c.logger.Warn("failed to archive input", "file", c.filePath, "error", err)
	} else {
		result.ArchivePath = archivePath
	}

	result.Success = true
	return result
}

// Validate decodes the file and checks its header without emitting anything.
func (c *Converter) Validate() error {
	sheet, err := LoadSheet(c.filePath, c.mainConfig.CSV)
	if err != nil {
		return err
	}
	return flow.ValidateHeader(sheet.Header())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// LoadSheet decodes an input file by extension.
func LoadSheet(path string, csvSettings config.CSVSettings) (*types.Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		sheet, err := xlsxparser.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse workbook: %w", err)
		}
		return sheet, nil
	case ".csv":
		sheet, err := csvparser.Parse(path, csvSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		return sheet, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Base(path))
	}
}

// pipeline builds the sheet pipeline from the configuration.
func (c *Converter) pipeline() (*Pipeline, error) {
	loc, err := c.mainConfig.Location()
	if err != nil {
		return nil, err
	}
	dates := flow.NewDateNormalizer(loc, c.now)
	transformer := flow.NewTransformer(dates, c.mainConfig.MinRowCells)
	return NewPipeline(transformer, PipelineOptionsFromConfig(c.mainConfig), c.logger, c.metrics), nil
}

// configuredEmitter opens the sink named by the configuration.
func (c *Converter) configuredEmitter(runID, outputPath string) (sink.Emitter, string, error) {
	v := validation.NewValidator()

	switch c.mainConfig.Sink {
	case config.SinkSQLite:
		store, err := sqlite.New(c.mainConfig.SQLitePath, runID, v)
		if err != nil {
			return nil, "", err
		}
		return store, c.mainConfig.SQLitePath, nil
	case config.SinkXML, "":
		return xmlwriter.NewWriter(outputPath, runID, v, xmlwriter.DefaultGenerateOptions()), outputPath, nil
	default:
		return nil, "", fmt.Errorf("unknown sink %q", c.mainConfig.Sink)
	}
}
