// =============================================================================
// Vessel Flow Parser - Row Transformer
// =============================================================================
//
// The transformer turns one raw sheet row into a normalized record. It is a
// pure function of the row cells, the date normalizer's location and its
// clock, so rows can be transformed independently of one another.
//
// TRANSFORMATION STEPS:
//   1. Skip rows narrower than the minimum width
//   2. Resolve the row direction once
//   3. Normalize the creation date, the ETA and the load-window dates
//   4. Apply the directional rule table
//   5. Aggregate the public comment string
//   6. Assemble the record in staging order
//
// =============================================================================

package flow

// RawRow is one decoded sheet row. Missing cells read as "".
type RawRow []string

// Cell returns the value at c, or "" when the row is too short.
func (r RawRow) Cell(c Column) string {
	if c < 0 || int(c) >= len(r) {
		return ""
	}
	return r[c]
}

// =============================================================================
// RECORD
// =============================================================================

// Value is one named output value.
type Value struct {
	Field Field
	Value string
}

// Record is the normalized output of one row, in staging order.
type Record struct {
	// Row is the 0-based sheet row the record was derived from.
	Row int

	Values []Value
}

// Get returns the value of a field, or "" when the record does not hold it.
func (r *Record) Get(f Field) string {
	for _, v := range r.Values {
		if v.Field == f {
			return v.Value
		}
	}
	return ""
}

// Map returns the record as a field-name keyed map.
func (r *Record) Map() map[Field]string {
	m := make(map[Field]string, len(r.Values))
	for _, v := range r.Values {
		m[v.Field] = v.Value
	}
	return m
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer derives records from raw rows.
type Transformer struct {
	dates    *DateNormalizer
	minCells int
}

// NewTransformer creates a Transformer. minCells below RowWidth is raised to
// RowWidth, since every column of the layout is read.
func NewTransformer(dates *DateNormalizer, minCells int) *Transformer {
	if dates == nil {
		dates = NewDateNormalizer(nil, nil)
	}
	if minCells < RowWidth {
		minCells = RowWidth
	}
	return &Transformer{dates: dates, minCells: minCells}
}

// Transform derives the record for the row at index rowIdx.
//
// RETURNS:
//   - (record, true, nil) for a processed row.
//   - (nil, false, nil) for a row narrower than the minimum width.
//   - (nil, false, *DateFormatError) when a date cell cannot be parsed.
func (t *Transformer) Transform(rowIdx int, row RawRow) (*Record, bool, error) {
	if len(row) < t.minCells {
		return nil, false, nil
	}

	dir := ParseDirection(row.Cell(ColType))

	createDate, err := t.dates.CreationDate(row.Cell(ColUpdate))
	if err != nil {
		return nil, false, dateError(rowIdx, ColUpdate, row, err)
	}

	from, err := t.date(rowIdx, ColLoadWindowFrom, row)
	if err != nil {
		return nil, false, err
	}
	to, err := t.date(rowIdx, ColLoadWindowTo, row)
	if err != nil {
		return nil, false, err
	}
	eta, err := t.date(rowIdx, ColETA, row)
	if err != nil {
		return nil, false, err
	}

	legs := ResolveLegs(row, dir, from, to)

	rec := &Record{
		Row: rowIdx,
		Values: []Value{
			{FieldID, row.Cell(ColID)},
			{FieldCreationDate, createDate},
			{FieldLoadDateFrom, legs.Load.DateFrom},
			{FieldLoadDateTo, legs.Load.DateTo},
			{FieldLoadPortName, legs.Load.PortName},
			{FieldLoadDateStatus, legs.Load.Status},
			{FieldDischargeLocation, legs.Discharge.Location},
			{FieldArrivalDateFrom, legs.Discharge.DateFrom},
			{FieldArrivalDateTo, legs.Discharge.DateTo},
			{FieldDischargePortName, legs.Discharge.PortName},
			{FieldArrivalDateStatus, legs.Discharge.Status},
			{FieldLoadLocation, legs.Load.Location},
			{FieldStatus, row.Cell(ColStatus)},
			{FieldVesselName, row.Cell(ColVesselName)},
			{FieldVesselIMO, row.Cell(ColVesselIMO)},
			{FieldCommodityName, row.Cell(ColComDesc)},
			{FieldVolume, row.Cell(ColVolume)},
			{FieldComments, Comments(row, eta)},
			{FieldCommentsPrivate, PrivateComment(dir)},
			{FieldLoadGunName, legs.Load.GunName},
			{FieldDischargeGunName, legs.Discharge.GunName},
		},
	}

	return rec, true, nil
}

// Comments builds the public comment string for a row. eta must already be
// in Encoding B.
func Comments(row RawRow, eta string) string {
	return Concat(commentPairs(row, eta), LabeledMode)
}

func (t *Transformer) date(rowIdx int, c Column, row RawRow) (string, error) {
	s, err := t.dates.Normalize(row.Cell(c))
	if err != nil {
		return "", dateError(rowIdx, c, row, err)
	}
	return s, nil
}

func dateError(rowIdx int, c Column, row RawRow, err error) error {
	return &DateFormatError{
		Row:    rowIdx,
		Column: c,
		Value:  row.Cell(c),
		Err:    err,
	}
}
