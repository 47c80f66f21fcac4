// =============================================================================
// Vessel Flow Parser - CSV Sheet Reader
// =============================================================================
//
// Some upstream systems export the vessel-movement sheet as CSV instead of a
// workbook. This module reads such a file into the same Sheet shape the XLSX
// reader produces, so the rest of the pipeline does not care which format
// arrived.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - Variable number of fields per row (short rows are kept, not rejected)
//   - Every field of a row is kept, including empty trailing fields
//   - Trailing rows with no content dropped
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitaliisumka/workbook-parser/internal/config"
	"github.com/vitaliisumka/workbook-parser/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file into a Sheet.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the main configuration.
//
// RETURNS:
//   - The decoded sheet. Row 0 is the header row.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*types.Sheet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sheet, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}

	sheet.Name = filepath.Base(filePath)
	sheet.SourceFile = filePath
	return sheet, nil
}

// utf8BOM is prepended by spreadsheet tools saving "CSV UTF-8".
const utf8BOM = "\ufeff"

// ParseReader reads CSV data from r into a Sheet.
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.Sheet, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) > 0 && len(allRows[0]) > 0 {
		allRows[0][0] = strings.TrimPrefix(allRows[0][0], utf8BOM)
	}

	rows := allRows

	// Drop trailing empty rows so the last row index means the same as for
	// a workbook.
	for len(rows) > 0 && isRowEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	return &types.Sheet{Rows: rows}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row. Row width is checked later
	// by the transformer, not here.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row has no content.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
