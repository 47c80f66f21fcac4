package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDateNormalizer_Normalize(t *testing.T) {
	d := NewDateNormalizer(time.UTC, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"05-Jan-2024", "01/05/2024/00:00"},
		{"5-Jan-2024", "01/05/2024/00:00"},
		{"31-Dec-1999", "12/31/1999/00:00"},
		{"29-Feb-2024", "02/29/2024/00:00"},
		{"05-JAN-2024", "01/05/2024/00:00"},
		{"05-jan-2024", "01/05/2024/00:00"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := d.Normalize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDateNormalizer_NormalizeInvalid(t *testing.T) {
	d := NewDateNormalizer(time.UTC, nil)

	for _, in := range []string{"2024-01-05", "5 Jan 2024", "31-Feb-2024", "soon"} {
		_, err := d.Normalize(in)
		assert.Error(t, err, in)
	}
}

func TestDateNormalizer_CreationDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	d := NewDateNormalizer(loc, nil)

	got, err := d.CreationDate("05-Jan-2024")
	require.NoError(t, err)
	assert.Equal(t, "01/05/2024/00:00+0100", got)
}

func TestDateNormalizer_CreationDateDefaultsToNow(t *testing.T) {
	now := time.Date(2024, time.March, 7, 14, 30, 0, 0, time.UTC)
	d := NewDateNormalizer(time.UTC, fixedClock(now))

	got, err := d.CreationDate("")
	require.NoError(t, err)
	assert.Equal(t, "03/07/2024/14:30+0000", got)
}

func TestDateNormalizer_CreationDateDefaultUsesLocation(t *testing.T) {
	now := time.Date(2024, time.March, 7, 23, 30, 0, 0, time.UTC)
	d := NewDateNormalizer(time.FixedZone("X", -5*3600), fixedClock(now))

	got, err := d.CreationDate("")
	require.NoError(t, err)
	assert.Equal(t, "03/07/2024/18:30-0500", got)
}
