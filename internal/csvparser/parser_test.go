package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisumka/workbook-parser/internal/config"
)

func TestParseReader_Basic(t *testing.T) {
	data := "reference,update,vessel\nFL-1,05-Jan-2024,Nordic Star\nFL-2,,\n\n,,\n"

	sheet, err := ParseReader(strings.NewReader(data), config.CSVSettings{Delimiter: ","})
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, []string{"reference", "update", "vessel"}, sheet.Header())
	assert.Equal(t, []string{"FL-2", "", ""}, sheet.Row(2))
	assert.Equal(t, 2, sheet.LastRowIndex())
}

func TestParseReader_Delimiters(t *testing.T) {
	tests := map[string]string{
		";":   "a;b\n1;2\n",
		"tab": "a\tb\n1\t2\n",
		"|":   "a|b\n1|2\n",
	}
	for delim, data := range tests {
		sheet, err := ParseReader(strings.NewReader(data), config.CSVSettings{Delimiter: delim})
		require.NoError(t, err, delim)
		assert.Equal(t, []string{"1", "2"}, sheet.Row(1), delim)
	}
}

func TestParseReader_VariableWidth(t *testing.T) {
	sheet, err := ParseReader(strings.NewReader("a,b,c\n1\n1,2,3,4\n"), config.CSVSettings{})
	require.NoError(t, err)
	assert.Len(t, sheet.Row(1), 1)
	assert.Len(t, sheet.Row(2), 4)
}

func TestParseReader_KeepsEmptyTrailingFields(t *testing.T) {
	row := make([]string, 23)
	row[0] = "FL-1"
	data := strings.Join(row, ",") + "\n" + strings.Join(row, ",") + "\n"

	sheet, err := ParseReader(strings.NewReader(data), config.CSVSettings{Delimiter: ","})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Len(t, sheet.Row(1), 23)
	assert.Equal(t, "", sheet.Row(1)[22])
}

func TestParseReader_StripsBOM(t *testing.T) {
	sheet, err := ParseReader(strings.NewReader("\ufeffreference,update\nFL-1,x\n"), config.CSVSettings{Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, "reference", sheet.Header()[0])
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	require.NoError(t, os.WriteFile(path, []byte("reference,update\nFL-1,\"05-Jan-2024\"\n"), 0644))

	sheet, err := Parse(path, config.CSVSettings{Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, "flows.csv", sheet.Name)
	assert.Equal(t, path, sheet.SourceFile)
	assert.Equal(t, []string{"FL-1", "05-Jan-2024"}, sheet.Row(1))
}
