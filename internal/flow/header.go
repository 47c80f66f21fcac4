// =============================================================================
// Vessel Flow Parser - Header Validation
// =============================================================================
//
// The header check guards against silent upstream format changes. A sheet
// whose header no longer matches the fixed layout is rejected as a whole:
// column positions are hard-wired, so a renamed or moved column would
// otherwise produce plausible but wrong records.
//
// RULES:
//   - Comparison is case-insensitive.
//   - Empty header cells are not checked.
//   - The first mismatch wins; no attempt is made to collect all of them.
//
// =============================================================================

package flow

import "strings"

// ValidateHeader checks the sheet's first row against the expected layout.
//
// PARAMETERS:
//   - row: The header row cells, as decoded from the sheet.
//
// RETURNS:
//   - nil if every populated cell matches.
//   - A *SchemaMismatchError for the first populated cell that does not.
func ValidateHeader(row []string) error {
	return validateHeaderAgainst(row, header[:])
}

func validateHeaderAgainst(row, expected []string) error {
	for i, cell := range row {
		if cell == "" {
			continue
		}

		want := ""
		if i < len(expected) {
			want = expected[i]
		}

		if !strings.EqualFold(want, cell) {
			return &SchemaMismatchError{
				Column:   i,
				Expected: want,
				Actual:   cell,
			}
		}
	}

	return nil
}
