package flow

import "strings"

// Pair is one labeled value of an aggregated string.
type Pair struct {
	Label string
	Value string
}

// ConcatMode selects how Concat joins values.
type ConcatMode struct {
	// Labeled writes label+value+";" per pair. When false, value+", " is
	// written and labels are ignored.
	Labeled bool

	// Trim is the number of bytes removed from the end of a non-empty
	// result, i.e. the length of the trailing separator.
	Trim int
}

var (
	// LabeledMode is used for the public comment string.
	LabeledMode = ConcatMode{Labeled: true, Trim: 1}

	// ListMode joins bare values with ", ".
	ListMode = ConcatMode{Labeled: false, Trim: 2}
)

// Concat joins the non-empty values of pairs in order. Pairs with an empty
// value are omitted entirely. The result is "" when every value is empty.
func Concat(pairs []Pair, mode ConcatMode) string {
	var b strings.Builder
	for _, p := range pairs {
		if p.Value == "" {
			continue
		}
		if mode.Labeled {
			b.WriteString(p.Label)
			b.WriteString(p.Value)
			b.WriteString(";")
		} else {
			b.WriteString(p.Value)
			b.WriteString(", ")
		}
	}

	s := b.String()
	if s == "" {
		return ""
	}
	trim := mode.Trim
	if trim > len(s) {
		trim = len(s)
	}
	if trim < 0 {
		trim = 0
	}
	return s[:len(s)-trim]
}

// commentPairs builds the public comment pairs of a row. eta must already be
// normalized.
func commentPairs(row RawRow, eta string) []Pair {
	return []Pair{
		{Label: "ETA:", Value: eta},
		{Label: "Operation:", Value: row.Cell(ColType)},
		{Label: "Origin1:", Value: row.Cell(ColOrigin1)},
		{Label: "Origin2:", Value: row.Cell(ColOrigin2)},
		{Label: "Origin3:", Value: row.Cell(ColOrigin3)},
		{Label: "ExportReference:", Value: row.Cell(ColExportReference)},
	}
}
