// =============================================================================
// Vessel Flow Parser - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser
//   - csvparser
//   - converter
//
// =============================================================================

package types

// =============================================================================
// SHEET TYPES
// =============================================================================

// Sheet is a decoded tabular sheet: row 0 is the header, the rest is data.
type Sheet struct {
	// Name is the sheet name in the workbook, or the file name for CSV input.
	Name string

	// SourceFile is the path the sheet was read from.
	SourceFile string

	// Rows contains the cell text of every row, in sheet order.
	// Rows may have different lengths; trailing empty cells are not stored.
	Rows [][]string
}

// LastRowIndex returns the 0-based index of the last row of the sheet, or -1
// for an empty sheet.
func (s *Sheet) LastRowIndex() int {
	return len(s.Rows) - 1
}

// Header returns the first row, or nil for an empty sheet.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Row returns the row at index i, or nil when it does not exist.
func (s *Sheet) Row(i int) []string {
	if i < 0 || i >= len(s.Rows) {
		return nil
	}
	return s.Rows[i]
}
