package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.RowsRead.Add(3)
	r.RowsSkipped.Inc()
	r.RecordsPushed.Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.RowsRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RowsSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RecordsPushed))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RecordsDropped))
}

func TestRecorder_Isolated(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.RowsRead.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsRead))
}

func TestRecorder_FileDone(t *testing.T) {
	r := NewRecorder()
	r.FileDone(nil, 0.2)
	r.FileDone(errors.New("boom"), 0.1)
	r.FileDone(nil, 0.3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.FilesProcessed.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FilesProcessed.WithLabelValues(ResultFailed)))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordsRolledBack.Inc()

	path := filepath.Join(t.TempDir(), "flowparser.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowparser_records_rolled_back_total 1")
	assert.Contains(t, string(data), "# HELP flowparser_rows_read_total")
}
