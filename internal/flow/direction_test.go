package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := map[string]Direction{
		"Export":  Export,
		"EXPORT":  Export,
		"export":  Export,
		"Import":  Import,
		"iMpOrT":  Import,
		"":        Unknown,
		"Exports": Unknown,
		" Export": Unknown,
		"STS":     Unknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDirection(in), "%q", in)
	}
}

func TestParseDataOrigin(t *testing.T) {
	actual := []string{"Sailed", "SAILED", "sailed", "Loading/Discharging", "loading/discharging"}
	for _, s := range actual {
		assert.Equal(t, Actual, ParseDataOrigin(s), s)
	}

	forecast := []string{"", "Planned", "Loading", "Discharging", "Sailed ", "Anchored"}
	for _, s := range forecast {
		assert.Equal(t, Forecast, ParseDataOrigin(s), s)
	}
}

func TestResolveLegs_Symmetry(t *testing.T) {
	row := sampleRow("")

	exp := ResolveLegs(row, Export, "F", "T")
	imp := ResolveLegs(row, Import, "F", "T")

	// The export load leg carries what the import discharge leg carries,
	// with each side's own port and country.
	assert.Equal(t, Leg{PortName: "Mongstad", DateFrom: "F", DateTo: "T", Status: "Actual", GunName: "Norway"}, exp.Load)
	assert.Equal(t, Leg{Location: "Rotterdam"}, exp.Discharge)

	assert.Equal(t, Leg{Location: "Mongstad"}, imp.Load)
	assert.Equal(t, Leg{PortName: "Rotterdam", DateFrom: "F", DateTo: "T", Status: "Actual", GunName: "Netherlands"}, imp.Discharge)
}

func TestResolveLegs_UnknownFollowsImport(t *testing.T) {
	row := sampleRow("")
	assert.Equal(t, ResolveLegs(row, Import, "F", "T"), ResolveLegs(row, Unknown, "F", "T"))
}

func TestPrivateComment(t *testing.T) {
	assert.Equal(t, UnknownOperation, PrivateComment(Unknown))
	assert.Empty(t, PrivateComment(Export))
	assert.Empty(t, PrivateComment(Import))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "Export", Export.String())
	assert.Equal(t, "Import", Import.String())
	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "Actual", Actual.String())
	assert.Equal(t, "Forecast", Forecast.String())
}
