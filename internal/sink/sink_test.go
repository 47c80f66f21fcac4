package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
)

func TestStaging_CommitAndTake(t *testing.T) {
	s := NewStaging(nil)

	require.NoError(t, s.Commit("FL-1", flow.FieldID))
	require.NoError(t, s.Commit("Nordic Star", flow.FieldVesselName))
	assert.Equal(t, 2, s.Pending())

	rec := s.Take()
	assert.Equal(t, 1, rec.Seq)
	assert.Equal(t, "FL-1", rec.Get(flow.FieldID))
	assert.Equal(t, "Nordic Star", rec.Get(flow.FieldVesselName))
	assert.Equal(t, 0, s.Pending())

	assert.Equal(t, 2, s.Take().Seq)
}

func TestStaging_CommitError(t *testing.T) {
	s := NewStaging(validation.NewValidator())

	err := s.Commit("Sailed", flow.FieldLoadDateStatus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitFailure))

	var ce *CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, flow.FieldLoadDateStatus, ce.Field)

	var fe *validation.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, validation.RuleStatus, fe.Rule)

	assert.Equal(t, 0, s.Pending())
}

func TestStaging_Rollback(t *testing.T) {
	s := NewStaging(nil)
	require.NoError(t, s.Commit("FL-1", flow.FieldID))
	s.Rollback()

	rec := s.Take()
	assert.Empty(t, rec.Values)
}

func TestMemory_Push(t *testing.T) {
	m := NewMemory(nil)
	var e Emitter = m

	require.NoError(t, e.Commit("FL-1", flow.FieldID))
	require.NoError(t, e.Push(context.Background()))
	require.NoError(t, e.Commit("FL-2", flow.FieldID))
	e.Rollback()
	require.NoError(t, e.Push(context.Background()))

	recs := m.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "FL-1", recs[0].Get(flow.FieldID))
	assert.Empty(t, recs[1].Values)
	assert.Equal(t, 2, recs[1].Seq)

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Push(context.Background()), ErrClosed)
}

func TestMemory_PushCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory(nil)
	assert.ErrorIs(t, m.Push(ctx), context.Canceled)
	assert.Empty(t, m.Records())
}
