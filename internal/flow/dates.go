// =============================================================================
// Vessel Flow Parser - Date Normalization
// =============================================================================
//
// Source sheets carry dates as dd-MMM-yyyy (e.g. "05-Jan-2024"). Downstream
// consumers expect one of two renderings:
//
//   ENCODING A: MM/dd/yyyy/HH:mm±HHmm  (creation timestamp, with zone offset)
//   ENCODING B: MM/dd/yyyy/HH:mm       (every other date)
//
// Month abbreviations are matched case-insensitively.
//
// =============================================================================

package flow

import (
	"time"
)

// Go layouts for the source encoding and both output encodings.
const (
	SourceLayout    = "2-Jan-2006"
	EncodingALayout = "01/02/2006/15:04-0700"
	EncodingBLayout = "01/02/2006/15:04"
)

// DateNormalizer parses source dates and renders them in the output encodings.
// The zero value is not usable; use NewDateNormalizer.
type DateNormalizer struct {
	loc *time.Location
	now func() time.Time
}

// NewDateNormalizer returns a normalizer that interprets source dates in loc.
// A nil loc means time.Local. A nil now means time.Now.
func NewDateNormalizer(loc *time.Location, now func() time.Time) *DateNormalizer {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &DateNormalizer{loc: loc, now: now}
}

// Normalize renders a source date in Encoding B. Empty input yields "".
func (d *DateNormalizer) Normalize(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	t, err := time.ParseInLocation(SourceLayout, value, d.loc)
	if err != nil {
		return "", err
	}
	return t.Format(EncodingBLayout), nil
}

// CreationDate renders a source date in Encoding A. Empty input defaults to
// the current time, also in Encoding A.
func (d *DateNormalizer) CreationDate(value string) (string, error) {
	if value == "" {
		return d.now().In(d.loc).Format(EncodingALayout), nil
	}
	t, err := time.ParseInLocation(SourceLayout, value, d.loc)
	if err != nil {
		return "", err
	}
	return t.Format(EncodingALayout), nil
}
