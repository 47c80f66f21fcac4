package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisumka/workbook-parser/internal/config"
	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/metrics"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/types"
)

var testNow = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dataRow returns a fully populated sheet row.
func dataRow(id, opType string) []string {
	row := make([]string, flow.RowWidth)
	row[flow.ColID] = id
	row[flow.ColUpdate] = "02-Jan-2024"
	row[flow.ColVesselName] = "Nordic Star"
	row[flow.ColVesselIMO] = "9321483"
	row[flow.ColStatus] = "Sailed"
	row[flow.ColDepCountry] = "Norway"
	row[flow.ColDepPort] = "Mongstad"
	row[flow.ColDesCountry] = "Netherlands"
	row[flow.ColDesPort] = "Rotterdam"
	row[flow.ColType] = opType
	row[flow.ColETA] = "09-Jan-2024"
	row[flow.ColLoadWindowFrom] = "03-Jan-2024"
	row[flow.ColLoadWindowTo] = "04-Jan-2024"
	row[flow.ColComDesc] = "Johan Sverdrup"
	row[flow.ColVolume] = "600000"
	row[flow.ColOrigin1] = "NO"
	row[flow.ColExportReference] = "REF-" + id
	return row
}

func testSheet(rows ...[]string) *types.Sheet {
	return &types.Sheet{Name: "Sheet1", Rows: append([][]string{flow.Header()}, rows...)}
}

func newTestPipeline(opts PipelineOptions) (*Pipeline, *metrics.Recorder) {
	rec := metrics.NewRecorder()
	tr := flow.NewTransformer(flow.NewDateNormalizer(time.UTC, func() time.Time { return testNow }), opts.MinRowCells)
	return NewPipeline(tr, opts, discardLogger(), rec), rec
}

func ids(records []sink.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Get(flow.FieldID)
	}
	return out
}

// failingEmitter fails the volume commit of the records whose id is listed.
type failingEmitter struct {
	*sink.Memory
	failIDs map[string]bool
	current string
}

func (f *failingEmitter) Commit(value string, field flow.Field) error {
	if field == flow.FieldID {
		f.current = value
	}
	if field == flow.FieldVolume && f.failIDs[f.current] {
		return &sink.CommitError{Field: field, Value: value, Err: errors.New("bus unavailable")}
	}
	return f.Memory.Commit(value, field)
}

func TestProcess_LastRowExcluded(t *testing.T) {
	p, rec := newTestPipeline(DefaultPipelineOptions())
	mem := sink.NewMemory(nil)

	sheet := testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Import"), dataRow("FL-3", "Export"))

	stats, err := p.Process(context.Background(), sheet, mem)
	require.NoError(t, err)

	records := mem.Records()
	require.Len(t, records, 2)
	assert.Equal(t, []string{"FL-1", "FL-2"}, ids(records))
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 2, stats.RecordsPushed)

	export, imp := records[0], records[1]
	assert.Equal(t, "Mongstad", export.Get(flow.FieldLoadPortName))
	assert.Equal(t, "01/03/2024/00:00", export.Get(flow.FieldLoadDateFrom))
	assert.Equal(t, "Actual", export.Get(flow.FieldLoadDateStatus))
	assert.Equal(t, "", export.Get(flow.FieldDischargePortName))

	assert.Equal(t, "Rotterdam", imp.Get(flow.FieldDischargePortName))
	assert.Equal(t, "01/04/2024/00:00", imp.Get(flow.FieldArrivalDateTo))
	assert.Equal(t, "Netherlands", imp.Get(flow.FieldDischargeGunName))
	assert.Equal(t, "", imp.Get(flow.FieldLoadPortName))

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.RowsRead))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.RecordsPushed))
}

func TestProcess_IncludeLastRow(t *testing.T) {
	opts := DefaultPipelineOptions()
	opts.IncludeLastRow = true
	p, _ := newTestPipeline(opts)
	mem := sink.NewMemory(nil)

	_, err := p.Process(context.Background(), testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export")), mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL-1", "FL-2"}, ids(mem.Records()))
}

func TestProcess_HeaderMismatch(t *testing.T) {
	p, _ := newTestPipeline(DefaultPipelineOptions())
	mem := sink.NewMemory(nil)

	sheet := testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export"))
	header := flow.Header()
	header[flow.ColVesselName] = "ship"
	sheet.Rows[0] = header

	_, err := p.Process(context.Background(), sheet, mem)
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrSchemaMismatch)

	var sm *flow.SchemaMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, int(flow.ColVesselName), sm.Column)
	assert.Empty(t, mem.Records())
}

func TestProcess_EmptyAndHeaderOnly(t *testing.T) {
	p, _ := newTestPipeline(DefaultPipelineOptions())

	for _, sheet := range []*types.Sheet{{Name: "empty"}, testSheet(), testSheet(dataRow("FL-1", "Export"))} {
		mem := sink.NewMemory(nil)
		stats, err := p.Process(context.Background(), sheet, mem)
		require.NoError(t, err, sheet.Name)
		assert.Zero(t, stats.RowsRead)
		assert.Empty(t, mem.Records())
	}
}

func TestProcess_ShortRowSkipped(t *testing.T) {
	p, rec := newTestPipeline(DefaultPipelineOptions())
	mem := sink.NewMemory(nil)

	short := dataRow("FL-2", "Export")[:flow.RowWidth-1]
	sheet := testSheet(dataRow("FL-1", "Export"), short, dataRow("FL-3", "Export"), dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL-1", "FL-3"}, ids(mem.Records()))
	assert.Equal(t, 1, stats.RowsSkipped)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RowsSkipped))
}

func TestProcess_DateErrorAbort(t *testing.T) {
	p, _ := newTestPipeline(DefaultPipelineOptions())
	mem := sink.NewMemory(nil)

	bad := dataRow("FL-2", "Export")
	bad[flow.ColLoadWindowFrom] = "2024-01-03"
	sheet := testSheet(dataRow("FL-1", "Export"), bad, dataRow("FL-3", "Export"), dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, mem)
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrDateFormat)

	var de *flow.DateFormatError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Row)
	assert.Equal(t, flow.ColLoadWindowFrom, de.Column)

	assert.Equal(t, []string{"FL-1"}, ids(mem.Records()))
	assert.Equal(t, 1, stats.RecordsPushed)
}

func TestProcess_DateErrorSkip(t *testing.T) {
	opts := DefaultPipelineOptions()
	opts.OnDateError = config.DateErrorSkip
	p, rec := newTestPipeline(opts)
	mem := sink.NewMemory(nil)

	bad := dataRow("FL-2", "Export")
	bad[flow.ColETA] = "soon"
	sheet := testSheet(dataRow("FL-1", "Export"), bad, dataRow("FL-3", "Export"), dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL-1", "FL-3"}, ids(mem.Records()))
	assert.Equal(t, 1, stats.RowsFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RowsFailed))
}

func TestProcess_CommitFailureEmitsEmptyRecord(t *testing.T) {
	p, rec := newTestPipeline(DefaultPipelineOptions())
	em := &failingEmitter{Memory: sink.NewMemory(nil), failIDs: map[string]bool{"FL-2": true}}

	sheet := testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export"), dataRow("FL-3", "Export"), dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, em)
	require.NoError(t, err)

	records := em.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "FL-1", records[0].Get(flow.FieldID))
	assert.Empty(t, records[1].Values, "rolled back record is pushed empty")
	assert.Equal(t, "FL-3", records[2].Get(flow.FieldID))

	assert.Equal(t, 1, stats.RecordsRolledBack)
	assert.Equal(t, 3, stats.RecordsPushed)
	assert.Zero(t, stats.RecordsDropped)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RecordsRolledBack))
}

func TestProcess_CommitFailureSkip(t *testing.T) {
	opts := DefaultPipelineOptions()
	opts.OnCommitFailure = config.CommitFailureSkip
	p, rec := newTestPipeline(opts)
	em := &failingEmitter{Memory: sink.NewMemory(nil), failIDs: map[string]bool{"FL-2": true}}

	sheet := testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export"), dataRow("FL-3", "Export"), dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, em)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL-1", "FL-3"}, ids(em.Records()))
	assert.Equal(t, 1, stats.RecordsDropped)
	assert.Equal(t, 2, stats.RecordsPushed)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RecordsDropped))
}

func TestProcess_ValidationFailureRollsBack(t *testing.T) {
	p, _ := newTestPipeline(DefaultPipelineOptions())
	mem := sink.NewMemory(nil)

	long := dataRow("FL-2", "Export")
	long[flow.ColID] = fmt.Sprintf("%070d", 2)
	sheet := testSheet(dataRow("FL-1", "Export"), long, dataRow("tail", "Export"))

	stats, err := p.Process(context.Background(), sheet, mem)
	require.NoError(t, err)
	require.Len(t, mem.Records(), 2)
	assert.Empty(t, mem.Records()[1].Values)
	assert.Equal(t, 1, stats.RecordsRolledBack)
}

func TestProcess_ParallelKeepsOrder(t *testing.T) {
	var rows [][]string
	for i := 1; i <= 200; i++ {
		op := "Export"
		if i%3 == 0 {
			op = "Import"
		}
		rows = append(rows, dataRow(fmt.Sprintf("FL-%03d", i), op))
	}
	sheet := testSheet(rows...)

	seq, _ := newTestPipeline(DefaultPipelineOptions())
	seqMem := sink.NewMemory(nil)
	_, err := seq.Process(context.Background(), sheet, seqMem)
	require.NoError(t, err)

	opts := DefaultPipelineOptions()
	opts.Workers = 8
	par, _ := newTestPipeline(opts)
	parMem := sink.NewMemory(nil)
	_, err = par.Process(context.Background(), sheet, parMem)
	require.NoError(t, err)

	require.Len(t, parMem.Records(), 199)
	assert.Equal(t, seqMem.Records(), parMem.Records())
}

func TestProcess_ParallelDateErrorStopsAtRow(t *testing.T) {
	opts := DefaultPipelineOptions()
	opts.Workers = 4
	p, _ := newTestPipeline(opts)
	mem := sink.NewMemory(nil)

	bad := dataRow("FL-3", "Export")
	bad[flow.ColUpdate] = "yesterday"
	sheet := testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export"), bad, dataRow("FL-4", "Export"), dataRow("tail", "Export"))

	_, err := p.Process(context.Background(), sheet, mem)
	require.ErrorIs(t, err, flow.ErrDateFormat)
	assert.Equal(t, []string{"FL-1", "FL-2"}, ids(mem.Records()))
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		opts := DefaultPipelineOptions()
		opts.Workers = workers
		p, _ := newTestPipeline(opts)
		mem := sink.NewMemory(nil)

		_, err := p.Process(ctx, testSheet(dataRow("FL-1", "Export"), dataRow("FL-2", "Export")), mem)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, mem.Records())
	}
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 3
	cfg.IncludeLastRow = true
	cfg.OnCommitFailure = config.CommitFailureSkip

	opts := PipelineOptionsFromConfig(cfg)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 23, opts.MinRowCells)
	assert.True(t, opts.IncludeLastRow)
	assert.Equal(t, config.CommitFailureSkip, opts.OnCommitFailure)
	assert.Equal(t, config.DateErrorAbort, opts.OnDateError)
}
