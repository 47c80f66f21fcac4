// =============================================================================
// Vessel Flow Parser - Record Sink Contract
// =============================================================================
//
// A sink receives records one field at a time. The converter commits every
// field of a record in staging order and then pushes it. When a commit fails
// the converter rolls the staged fields back before deciding whether to push.
//
//   Commit(value, field) ... Commit(value, field)  -> Push(ctx)
//   Commit(value, field) ... [error] -> Rollback() -> Push(ctx) | skip
//
// Concrete sinks embed Staging, which owns the staged fields, validates each
// commit and hands the completed record to the sink's push implementation.
//
// =============================================================================

package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
)

// ErrCommitFailure is wrapped by every CommitError.
var ErrCommitFailure = errors.New("commit failure")

// ErrClosed is returned by emitters used after Close.
var ErrClosed = errors.New("emitter closed")

// Emitter is the record sink the converter writes to.
type Emitter interface {
	// Commit stages one field value on the current record.
	Commit(value string, field flow.Field) error

	// Rollback discards every field staged since the last push.
	Rollback()

	// Push finalizes the current record and starts a new one.
	Push(ctx context.Context) error

	// Close flushes and releases the sink.
	Close() error
}

// CommitError reports a field that could not be staged.
type CommitError struct {
	Field flow.Field
	Value string
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit field '%s': %v", e.Field, e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailure, e.Err} }

// =============================================================================
// STAGED RECORDS
// =============================================================================

// Record is a pushed record. Seq counts pushes from 1.
type Record struct {
	Seq    int
	Values []flow.Value
}

// Get returns the value of a field, or "".
func (r Record) Get(f flow.Field) string {
	for _, v := range r.Values {
		if v.Field == f {
			return v.Value
		}
	}
	return ""
}

// Staging holds the fields of the record being built. It is safe for
// concurrent use, though the converter drives it from one goroutine.
type Staging struct {
	mu        sync.Mutex
	validator *validation.Validator
	values    []flow.Value
	seq       int
}

// NewStaging creates a Staging that validates commits with v. A nil v uses
// the default field rules.
func NewStaging(v *validation.Validator) *Staging {
	if v == nil {
		v = validation.NewValidator()
	}
	return &Staging{validator: v, values: make([]flow.Value, 0, len(flow.Fields()))}
}

// Commit validates value and stages it.
func (s *Staging) Commit(value string, field flow.Field) error {
	if ferr := s.validator.ValidateField(field, value); ferr != nil {
		return &CommitError{Field: field, Value: value, Err: ferr}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, flow.Value{Field: field, Value: value})
	return nil
}

// Rollback discards the staged fields.
func (s *Staging) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = s.values[:0]
}

// Take returns the staged record and resets the staging area.
func (s *Staging) Take() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	values := make([]flow.Value, len(s.values))
	copy(values, s.values)
	s.values = s.values[:0]
	return Record{Seq: s.seq, Values: values}
}

// Pending returns the number of staged fields.
func (s *Staging) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// =============================================================================
// IN-MEMORY SINK
// =============================================================================

// Memory keeps pushed records in memory. It backs dry runs and tests.
type Memory struct {
	*Staging

	mu      sync.Mutex
	records []Record
	closed  bool
}

// NewMemory creates an in-memory sink.
func NewMemory(v *validation.Validator) *Memory {
	return &Memory{Staging: NewStaging(v)}
}

// Push stores the staged record.
func (m *Memory) Push(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records = append(m.records, m.Take())
	return nil
}

// Close marks the sink closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of the pushed records.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
