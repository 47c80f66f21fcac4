package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
)

func newTestStore(t *testing.T, runID string) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "flows.db"), runID, nil)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("", "run", nil)
	assert.Error(t, err)
}

func TestStore_PushAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "run-1")
	var e sink.Emitter = store

	require.NoError(t, e.Commit("FL-1", flow.FieldID))
	require.NoError(t, e.Commit("Mongstad", flow.FieldLoadPortName))
	require.NoError(t, e.Commit("Actual", flow.FieldLoadDateStatus))
	require.NoError(t, e.Push(ctx))

	require.NoError(t, e.Commit("FL-2", flow.FieldID))
	e.Rollback()
	require.NoError(t, e.Push(ctx))

	n, err := store.Count(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := store.Records(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, 1, recs[0].Seq)
	assert.Equal(t, "FL-1", recs[0].Get(flow.FieldID))
	assert.Equal(t, "Mongstad", recs[0].Get(flow.FieldLoadPortName))
	assert.Equal(t, "Actual", recs[0].Get(flow.FieldLoadDateStatus))
	assert.Equal(t, "", recs[0].Get(flow.FieldDischargePortName))

	assert.Equal(t, 2, recs[1].Seq)
	assert.Empty(t, recs[1].Values)
}

func TestStore_RunsAreSeparate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.db")

	for _, run := range []string{"a", "b"} {
		store, err := New(path, run, nil)
		require.NoError(t, err)
		require.NoError(t, store.Commit("FL-"+run, flow.FieldID))
		require.NoError(t, store.Push(ctx))
		require.NoError(t, store.Close())
	}

	store, err := New(path, "reader", nil)
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.Records(ctx, "b")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "FL-b", recs[0].Get(flow.FieldID))
}

func TestStore_PushCancelled(t *testing.T) {
	store := newTestStore(t, "run")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Push(ctx))
}

func TestColumn(t *testing.T) {
	assert.Equal(t, "discharge_gun_name", column(flow.FieldDischargeGunName))
	assert.Len(t, insertColumns, len(flow.Fields())+3)
}
