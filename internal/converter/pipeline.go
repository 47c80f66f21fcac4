// =============================================================================
// Vessel Flow Parser - Sheet Pipeline
// =============================================================================
//
// The pipeline drives one decoded sheet through the flow engine and into a
// record sink.
//
// PROCESSING STEPS:
//   1. Validate the header row once; a mismatch aborts before any row
//   2. Derive a record for every data row (map phase, optionally parallel)
//   3. Emit the records to the sink in sheet order (reduce phase, sequential)
//
// ROW RANGE:
//   Data rows run from index 1 up to, but not including, the sheet's last row
//   index. Upstream exports have always been consumed this way. Set
//   IncludeLastRow to make the bound inclusive.
//
// POLICIES:
//   - OnDateError "abort" returns the *flow.DateFormatError; "skip" drops the row
//   - OnCommitFailure "emit" rolls back and still pushes; "skip" rolls back
//     and pushes nothing
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vitaliisumka/workbook-parser/internal/config"
	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/metrics"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/types"
)

// =============================================================================
// PIPELINE OPTIONS
// =============================================================================

// PipelineOptions controls row range, parallelism and failure policies.
type PipelineOptions struct {
	// Workers is the number of goroutines deriving records. 1 is sequential.
	Workers int

	// MinRowCells is the minimum width of a processed row.
	MinRowCells int

	// IncludeLastRow processes the sheet's last row too.
	IncludeLastRow bool

	// OnCommitFailure decides whether a rolled back record is still pushed.
	OnCommitFailure config.CommitFailurePolicy

	// OnDateError decides whether an unparsable date aborts the sheet.
	OnDateError config.DateErrorPolicy
}

// DefaultPipelineOptions returns options matching the upstream behavior.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Workers:         1,
		MinRowCells:     flow.RowWidth,
		OnCommitFailure: config.CommitFailureEmit,
		OnDateError:     config.DateErrorAbort,
	}
}

// PipelineOptionsFromConfig maps the main configuration onto pipeline options.
func PipelineOptionsFromConfig(cfg *config.MainConfig) PipelineOptions {
	return PipelineOptions{
		Workers:         cfg.Workers,
		MinRowCells:     cfg.MinRowCells,
		IncludeLastRow:  cfg.IncludeLastRow,
		OnCommitFailure: cfg.OnCommitFailure,
		OnDateError:     cfg.OnDateError,
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats counts what happened to the rows of one sheet.
type Stats struct {
	RowsRead          int
	RowsSkipped       int
	RowsFailed        int
	RecordsPushed     int
	RecordsRolledBack int
	RecordsDropped    int
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline processes sheets. It is safe to reuse across sheets, but not to run
// Process concurrently on the same emitter.
type Pipeline struct {
	transformer *flow.Transformer
	options     PipelineOptions
	logger      Logger
	metrics     *metrics.Recorder
}

// NewPipeline creates a pipeline around a transformer.
func NewPipeline(transformer *flow.Transformer, options PipelineOptions, logger Logger, recorder *metrics.Recorder) *Pipeline {
	if options.Workers < 1 {
		options.Workers = 1
	}
	if logger == nil {
		logger = defaultLogger()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Pipeline{
		transformer: transformer,
		options:     options,
		logger:      logger,
		metrics:     recorder,
	}
}

// derived is the outcome of transforming one row.
type derived struct {
	record *flow.Record
	ok     bool
	err    error
}

// Process validates the header of sheet and emits one record per data row.
//
// RETURNS:
//   - The row statistics, also when processing stops early.
//   - A *flow.SchemaMismatchError, a *flow.DateFormatError (abort policy),
//     a push error from the sink, or the context error.
func (p *Pipeline) Process(ctx context.Context, sheet *types.Sheet, emitter sink.Emitter) (Stats, error) {
	var stats Stats

	if err := flow.ValidateHeader(sheet.Header()); err != nil {
		return stats, err
	}

	first, end := p.rowRange(sheet)
	if end <= first {
		p.logger.Info("no data rows to process", "sheet", sheet.Name)
		return stats, nil
	}

	next := func(i int) derived {
		rec, ok, err := p.transformer.Transform(i, flow.RawRow(sheet.Row(i)))
		return derived{record: rec, ok: ok, err: err}
	}

	if p.options.Workers > 1 {
		results, err := p.deriveParallel(ctx, sheet, first, end)
		if err != nil {
			return stats, err
		}
		next = func(i int) derived { return results[i-first] }
	}

	for i := first; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.handle(ctx, i, next(i), emitter, &stats); err != nil {
			return stats, err
		}
	}

	p.logger.Debug("sheet processed",
		"sheet", sheet.Name,
		"rows_read", stats.RowsRead,
		"records_pushed", stats.RecordsPushed,
		"rows_skipped", stats.RowsSkipped)

	return stats, nil
}

// rowRange returns the half-open range of data row indexes.
func (p *Pipeline) rowRange(sheet *types.Sheet) (int, int) {
	end := sheet.LastRowIndex()
	if p.options.IncludeLastRow {
		end++
	}
	return flow.HeaderRow + 1, end
}

// deriveParallel transforms rows [first, end) with a bounded worker pool.
// Row errors are kept per row so the emit phase can apply the date policy in
// sheet order; only cancellation fails the group.
func (p *Pipeline) deriveParallel(ctx context.Context, sheet *types.Sheet, first, end int) ([]derived, error) {
	results := make([]derived, end-first)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.Workers)

	for i := first; i < end; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, ok, err := p.transformer.Transform(i, flow.RawRow(sheet.Row(i)))
			results[i-first] = derived{record: rec, ok: ok, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// handle applies the row policies to one derived row.
func (p *Pipeline) handle(ctx context.Context, rowIdx int, d derived, emitter sink.Emitter, stats *Stats) error {
	stats.RowsRead++
	p.metrics.RowsRead.Inc()

	if d.err != nil {
		if errors.Is(d.err, flow.ErrDateFormat) && p.options.OnDateError == config.DateErrorSkip {
			stats.RowsFailed++
			p.metrics.RowsFailed.Inc()
			p.logger.Warn("row skipped", "row", rowIdx, "error", d.err)
			return nil
		}
		return d.err
	}

	if !d.ok {
		stats.RowsSkipped++
		p.metrics.RowsSkipped.Inc()
		p.logger.Debug("row too short, skipped", "row", rowIdx)
		return nil
	}

	return p.emit(ctx, d.record, emitter, stats)
}

// emit commits every field of record in staging order and pushes it.
func (p *Pipeline) emit(ctx context.Context, record *flow.Record, emitter sink.Emitter, stats *Stats) error {
	for _, v := range record.Values {
		if err := emitter.Commit(v.Value, v.Field); err != nil {
			emitter.Rollback()
			stats.RecordsRolledBack++
			p.metrics.RecordsRolledBack.Inc()

			if p.options.OnCommitFailure == config.CommitFailureSkip {
				stats.RecordsDropped++
				p.metrics.RecordsDropped.Inc()
				p.logger.Warn("record rolled back and dropped", "row", record.Row, "error", err)
				return nil
			}

			p.logger.Warn("record rolled back", "row", record.Row, "error", err)
			break
		}
	}

	if err := emitter.Push(ctx); err != nil {
		return fmt.Errorf("failed to push record for row %d: %w", record.Row, err)
	}
	stats.RecordsPushed++
	p.metrics.RecordsPushed.Inc()
	return nil
}
