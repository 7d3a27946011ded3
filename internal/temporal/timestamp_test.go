package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"2016-01-01 00:00:00", "2016-01-01T00:00:00.000Z", true},
		{"2016-03-14 17:24:55", "2016-03-14T17:24:55.000Z", true},
		{"  2016-03-14 17:24:55  ", "2016-03-14T17:24:55.000Z", true},
		{"2016-03-14T17:24:55", "2016-03-14T17:24:55.000Z", true},
		{"2016-03-14 17:24:55.123", "2016-03-14T17:24:55.123Z", true},
		{"2016-03-14T17:24:55Z", "2016-03-14T17:24:55.000Z", true},
		{"2016-03-14T17:24:55.5+02:00", "2016-03-14T15:24:55.500Z", true},
		{"2016-03-14T20:00:00-05:00", "2016-03-15T01:00:00.000Z", true},
		{"2016-03-14 20:00:00 -0500", "2016-03-15T01:00:00.000Z", true},
		{"2016-03-14 17:24", "2016-03-14T17:24:00.000Z", true},
		{"2016-03-14", "2016-03-14T00:00:00.000Z", true},
		{"", "", false},
		{"not a date", "", false},
		{"2016-13-01 00:00:00", "", false},
		{"2016-02-30 00:00:00", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeTimestamp(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, ok := NormalizeTimestamp("2016-06-30 23:59:58")
	require.True(t, ok)

	second, ok := NormalizeTimestamp(first)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestExtractPickupHour(t *testing.T) {
	hour, ok := ExtractPickupHour("2016-01-01T00:00:00.000Z")
	require.True(t, ok)
	assert.Equal(t, 0, hour)

	hour, ok = ExtractPickupHour("2016-01-01T23:59:59.999Z")
	require.True(t, ok)
	assert.Equal(t, 23, hour)

	// The offset is applied before the hour is taken.
	hour, ok = ExtractPickupHour("2016-01-01T22:30:00-05:00")
	require.True(t, ok)
	assert.Equal(t, 3, hour)

	_, ok = ExtractPickupHour("garbage")
	assert.False(t, ok)
}

func TestNormalizerLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	n := NewNormalizer(loc)
	assert.Equal(t, loc, n.Location())

	got, ok := n.Normalize("2016-01-01 00:00:00")
	require.True(t, ok)
	assert.Equal(t, "2016-01-01T05:00:00.000Z", got)

	hour, ok := n.PickupHour("2016-01-01 00:00:00")
	require.True(t, ok)
	assert.Equal(t, 5, hour)

	// Explicit offsets win over the configured location.
	got, ok = n.Normalize("2016-01-01T00:00:00Z")
	require.True(t, ok)
	assert.Equal(t, "2016-01-01T00:00:00.000Z", got)
}

func TestNewNormalizerNilLocation(t *testing.T) {
	assert.Equal(t, time.UTC, NewNormalizer(nil).Location())
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = LoadLocation("utc")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Not/AZone")
	assert.Error(t, err)
}
