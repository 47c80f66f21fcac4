// =============================================================================
// Vessel Flow Parser - Sheet Layout
// =============================================================================
//
// This file declares the fixed physical layout of a vessel-movement sheet and
// the names of the normalized output fields. Everything here is read-only
// after package initialization.
//
// SHEET LAYOUT (0-based column index):
//   | 0 reference | 1 update | 2 vessel | 3 imo | 4 status | 5 depcountry |
//   | 6 depport | 7 depcode | 8 descountry | 9 desport | 10 descode |
//   | 11 opecountry | 12 opetype | 13 eta | 14 opestart | 15 opeend |
//   | 16 comgroup | 17 comdesc | 18 qty | 19 origin1 | 20 origin2 |
//   | 21 origin3 | 22 export reference |
//
// =============================================================================

package flow

// =============================================================================
// COLUMN POSITIONS
// =============================================================================

// Column is a physical column position in a data row.
type Column int

const (
	ColID Column = iota
	ColUpdate
	ColVesselName
	ColVesselIMO
	ColStatus
	ColDepCountry
	ColDepPort
	ColDepCode
	ColDesCountry
	ColDesPort
	ColDesCode
	ColOpeCountry
	ColType
	ColETA
	ColLoadWindowFrom
	ColLoadWindowTo
	ColComGroup
	ColComDesc
	ColVolume
	ColOrigin1
	ColOrigin2
	ColOrigin3
	ColExportReference
)

// RowWidth is the number of columns a data row must carry to be processed.
const RowWidth = 23

// HeaderRow is the index of the header row; data starts right after it.
const HeaderRow = 0

// header is the expected ordered list of column names.
var header = [RowWidth]string{
	"reference", "update", "vessel", "imo", "status", "depcountry", "depport", "depcode",
	"descountry", "desport", "descode", "opecountry", "opetype", "eta", "opestart", "opeend",
	"comgroup", "comdesc", "qty", "origin1", "origin2", "origin3", "export reference",
}

// Header returns a copy of the expected header row.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header[:])
	return out
}

// Name returns the expected header name for the column.
func (c Column) Name() string {
	if c < 0 || int(c) >= len(header) {
		return ""
	}
	return header[c]
}

// =============================================================================
// OUTPUT FIELDS
// =============================================================================

// Field is the name of a normalized output field.
type Field string

const (
	FieldID                Field = "id"
	FieldCreationDate      Field = "creation-date"
	FieldLoadDateFrom      Field = "load-date-from"
	FieldLoadDateTo        Field = "load-date-to"
	FieldLoadPortName      Field = "load-port-name"
	FieldLoadDateStatus    Field = "load-date-status"
	FieldDischargeLocation Field = "discharge-location"
	FieldArrivalDateFrom   Field = "arrival-date-from"
	FieldArrivalDateTo     Field = "arrival-date-to"
	FieldDischargePortName Field = "discharge-port-name"
	FieldArrivalDateStatus Field = "arrival-date-status"
	FieldLoadLocation      Field = "load-location"
	FieldStatus            Field = "status"
	FieldVesselName        Field = "vessel-name"
	FieldVesselIMO         Field = "vessel-imo"
	FieldCommodityName     Field = "commodity-name"
	FieldVolume            Field = "volume"
	FieldComments          Field = "comments"
	FieldCommentsPrivate   Field = "comments-private"
	FieldLoadGunName       Field = "load-gun-name"
	FieldDischargeGunName  Field = "discharge-gun-name"
)

// fieldOrder is the order in which fields are staged on the emitter.
var fieldOrder = [...]Field{
	FieldID,
	FieldCreationDate,
	FieldLoadDateFrom,
	FieldLoadDateTo,
	FieldLoadPortName,
	FieldLoadDateStatus,
	FieldDischargeLocation,
	FieldArrivalDateFrom,
	FieldArrivalDateTo,
	FieldDischargePortName,
	FieldArrivalDateStatus,
	FieldLoadLocation,
	FieldStatus,
	FieldVesselName,
	FieldVesselIMO,
	FieldCommodityName,
	FieldVolume,
	FieldComments,
	FieldCommentsPrivate,
	FieldLoadGunName,
	FieldDischargeGunName,
}

// Fields returns all output fields in staging order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder[:])
	return out
}

// IsField reports whether name is one of the known output fields.
func IsField(name Field) bool {
	for _, f := range fieldOrder {
		if f == name {
			return true
		}
	}
	return false
}
