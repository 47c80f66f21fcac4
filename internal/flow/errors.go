package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrSchemaMismatch means the header row no longer matches the expected
	// layout. It is fatal for the whole sheet.
	ErrSchemaMismatch = errors.New("header has been changed")

	// ErrDateFormat means a non-empty date cell could not be parsed.
	ErrDateFormat = errors.New("invalid date")
)

// SchemaMismatchError describes the first header cell that did not match.
type SchemaMismatchError struct {
	// Column is the 0-based position of the offending header cell.
	Column int

	// Expected is the name the layout requires at Column. It is empty when
	// the sheet carries more header cells than the layout defines.
	Expected string

	// Actual is the text found in the sheet.
	Actual string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("header has been changed at column %d: expected %q; actual %q",
		e.Column, e.Expected, e.Actual)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// DateFormatError names a date cell whose value is not in the source encoding.
type DateFormatError struct {
	Row    int
	Column Column
	Value  string
	Err    error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("row %d, column %d (%s): cannot parse date %q: %v",
		e.Row, int(e.Column), e.Column.Name(), e.Value, e.Err)
}

// Unwrap lets callers match both ErrDateFormat and the underlying
// *time.ParseError.
func (e *DateFormatError) Unwrap() []error { return []error{ErrDateFormat, e.Err} }
