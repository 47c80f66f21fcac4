// =============================================================================
// Vessel Flow Parser - Directional Field Resolution
// =============================================================================
//
// A sheet row describes one leg of a movement, but the physical columns are
// shared between both legs: the departure port, the two load-window dates and
// the status apply to the load side for exports and to the discharge side for
// imports. The row's operation type is the only thing that disambiguates them.
//
// RULE TABLE:
//
//   | Output               | Export                 | Import / Unknown       |
//   |----------------------|------------------------|------------------------|
//   | load-port-name       | depport                |                        |
//   | load-date-from/to    | opestart / opeend      |                        |
//   | load-date-status     | origin(status)         |                        |
//   | load-location        |                        | depport                |
//   | discharge-port-name  |                        | desport                |
//   | arrival-date-from/to |                        | opestart / opeend      |
//   | arrival-date-status  |                        | origin(status)         |
//   | discharge-location   | desport                |                        |
//   | load-gun-name        | depcountry             |                        |
//   | discharge-gun-name   |                        | descountry             |
//
// Unknown is grouped with Import for every column above; it only differs in
// the private comment marker.
//
// =============================================================================

package flow

import "strings"

// =============================================================================
// SHIPMENT DIRECTION
// =============================================================================

// Direction is the operation type of a row.
type Direction int

const (
	Unknown Direction = iota
	Export
	Import
)

// UnknownOperation is written to comments-private for rows whose type is
// neither Export nor Import.
const UnknownOperation = "Unknown Operation"

// ParseDirection maps the raw type cell to a Direction. Matching is
// case-insensitive; anything else, including "", is Unknown.
func ParseDirection(s string) Direction {
	switch {
	case strings.EqualFold(s, "Export"):
		return Export
	case strings.EqualFold(s, "Import"):
		return Import
	default:
		return Unknown
	}
}

func (d Direction) String() string {
	switch d {
	case Export:
		return "Export"
	case Import:
		return "Import"
	default:
		return "Unknown"
	}
}

// =============================================================================
// DATA ORIGIN
// =============================================================================

// DataOrigin is the temporal confidence of a leg's dates.
type DataOrigin int

const (
	Forecast DataOrigin = iota
	Actual
)

// ParseDataOrigin derives the data origin from the row status.
// "Sailed" and "Loading/Discharging" mean the dates are actual.
func ParseDataOrigin(status string) DataOrigin {
	if strings.EqualFold(status, "Sailed") || strings.EqualFold(status, "Loading/Discharging") {
		return Actual
	}
	return Forecast
}

func (o DataOrigin) String() string {
	if o == Actual {
		return "Actual"
	}
	return "Forecast"
}

// =============================================================================
// LEG RESOLUTION
// =============================================================================

// Leg holds the direction-dependent attributes of one side of a movement.
// Empty strings mean the attribute does not apply for the row's direction.
type Leg struct {
	PortName string
	DateFrom string
	DateTo   string
	Status   string
	// Location is the opposite side's port, recorded as a secondary location.
	Location string
	GunName  string
}

// Legs is the resolved pair of load and discharge attributes.
type Legs struct {
	Load      Leg
	Discharge Leg
}

// legRule selects, for one direction, which side receives the shared columns.
type legRule struct {
	windowOnLoad bool
}

var legRules = map[Direction]legRule{
	Export:  {windowOnLoad: true},
	Import:  {windowOnLoad: false},
	Unknown: {windowOnLoad: false},
}

// ResolveLegs applies the rule table to a row. from and to are the already
// normalized load-window dates.
func ResolveLegs(row RawRow, dir Direction, from, to string) Legs {
	rule := legRules[dir]
	status := ParseDataOrigin(row.Cell(ColStatus)).String()

	var legs Legs
	if rule.windowOnLoad {
		legs.Load = Leg{
			PortName: row.Cell(ColDepPort),
			DateFrom: from,
			DateTo:   to,
			Status:   status,
			GunName:  row.Cell(ColDepCountry),
		}
		legs.Discharge = Leg{
			Location: row.Cell(ColDesPort),
		}
		return legs
	}

	legs.Load = Leg{
		Location: row.Cell(ColDepPort),
	}
	legs.Discharge = Leg{
		PortName: row.Cell(ColDesPort),
		DateFrom: from,
		DateTo:   to,
		Status:   status,
		GunName:  row.Cell(ColDesCountry),
	}
	return legs
}

// PrivateComment returns the internal annotation for a direction.
func PrivateComment(dir Direction) string {
	if dir == Unknown {
		return UnknownOperation
	}
	return ""
}
