// =============================================================================
// Vessel Flow Parser - XLSX Workbook Reader
// =============================================================================
//
// This module opens vessel-movement workbooks and exposes the rows of one
// sheet as plain cell text. It does not interpret the cells: header checks,
// date parsing and field derivation belong to the flow package.
//
// CELL TEXT:
//   Cells are returned as excelize renders them, i.e. with the cell's number
//   format applied. Cells carrying a date number format are the exception:
//   they are rendered as dd-MMM-yyyy ("05-Jan-2024") whatever format the
//   workbook displays, so native Excel dates reach the date normalizer in
//   the source encoding.
//
// ROW WIDTH:
//   excelize drops trailing empty cells. Non-empty data rows are padded back
//   to the header row's width so a row whose last optional columns are blank
//   keeps its place in the layout. Empty rows stay empty.
//
// CUSTOMIZATION:
//   - Select a different sheet with ReadOptions.SheetIndex
//   - Pass an excelize password for protected workbooks
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vitaliisumka/workbook-parser/internal/types"
)

// =============================================================================
// READ OPTIONS
// =============================================================================

// ReadOptions controls which sheet is read and how the workbook is opened.
type ReadOptions struct {
	// SheetIndex is the 0-based position of the sheet to read.
	// Default: 0 (the first sheet)
	SheetIndex int

	// Password opens an encrypted workbook. Leave empty for plain files.
	Password string
}

// DefaultReadOptions returns options that read the first sheet.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{SheetIndex: 0}
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// Parse reads the first sheet of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//
// RETURNS:
//   - The decoded sheet.
//   - An error if the file cannot be opened or has no sheets.
func Parse(path string) (*types.Sheet, error) {
	return ParseWithOptions(path, DefaultReadOptions())
}

// ParseWithOptions reads a sheet of the workbook at path.
func ParseWithOptions(path string, opts ReadOptions) (*types.Sheet, error) {
	f, err := excelize.OpenFile(path, excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := readSheet(f, opts)
	if err != nil {
		return nil, err
	}
	sheet.SourceFile = path
	return sheet, nil
}

// ParseReader reads a sheet from an in-memory or streamed workbook.
func ParseReader(r io.Reader, opts ReadOptions) (*types.Sheet, error) {
	f, err := excelize.OpenReader(r, excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, opts)
}

// readSheet extracts the rows of the selected sheet from an open workbook.
func readSheet(f *excelize.File, opts ReadOptions) (*types.Sheet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", opts.SheetIndex, len(sheets))
	}

	name := sheets[opts.SheetIndex]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", name, err)
	}

	if err := renderDateCells(f, name, rows); err != nil {
		return nil, err
	}
	padToHeader(rows)

	return &types.Sheet{
		Name: name,
		Rows: rows,
	}, nil
}

// =============================================================================
// DATE CELLS
// =============================================================================

// DateLayout is the text form given to date-formatted cells.
const DateLayout = "02-Jan-2006"

// renderDateCells replaces the display text of date-formatted numeric cells
// with their DateLayout rendering. Only cells whose raw value differs from
// the displayed one carry a number format, so the style lookup is limited to
// those.
func renderDateCells(f *excelize.File, sheet string, rows [][]string) error {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("failed to read raw rows of sheet '%s': %w", sheet, err)
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return fmt.Errorf("failed to read workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	dateStyles := make(map[int]bool)

	for r, row := range rows {
		if r >= len(raw) {
			break
		}
		for c, shown := range row {
			if c >= len(raw[r]) || raw[r][c] == shown || raw[r][c] == "" {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return fmt.Errorf("failed to read style of cell %s: %w", cell, err)
			}

			isDate, seen := dateStyles[styleID]
			if !seen {
				style, err := f.GetStyle(styleID)
				if err != nil {
					return fmt.Errorf("failed to read style %d: %w", styleID, err)
				}
				isDate = isDateStyle(style)
				dateStyles[styleID] = isDate
			}
			if !isDate {
				continue
			}

			serial, err := strconv.ParseFloat(raw[r][c], 64)
			if err != nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			row[c] = t.Format(DateLayout)
		}
	}
	return nil
}

// isDateStyle reports whether a cell style formats numbers as dates.
func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format code contains a
// day, month or year token outside quoted text, escapes and [..] sections.
func isDateFormatCode(code string) bool {
	var quoted, bracket, escaped bool
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quoted:
			quoted = r != '"'
		case r == '"':
			quoted = true
		case bracket:
			bracket = r != ']'
		case r == '[':
			bracket = true
		case r == 'd' || r == 'm' || r == 'y':
			return true
		}
	}
	return false
}

// padToHeader extends every non-empty data row to the header row's width.
func padToHeader(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	width := len(rows[0])
	for i := 1; i < len(rows); i++ {
		if n := len(rows[i]); n > 0 && n < width {
			padded := make([]string, width)
			copy(padded, rows[i])
			rows[i] = padded
		}
	}
}
