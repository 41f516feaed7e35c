package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertAcrossDSTBoundary(t *testing.T) {
	nine := TimeOfDay{Hour: 9}

	// 2024-03-09 is before the US spring-forward; New York is UTC-5.
	before, err := Convert(nine, "America/New_York", "UTC", "2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 14}, before.Time)

	// 2024-03-11 is after; New York is UTC-4.
	after, err := Convert(nine, "America/New_York", "UTC", "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 13}, after.Time)
}

func TestConvertAbbreviationTracksDST(t *testing.T) {
	noon := TimeOfDay{Hour: 12}

	winter, err := Convert(noon, "UTC", "America/New_York", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "EST", winter.Abbrev)

	summer, err := Convert(noon, "UTC", "America/New_York", "2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, "EDT", summer.Abbrev)
}

func TestConvertSameZoneShortcut(t *testing.T) {
	got, err := Convert(TimeOfDay{Hour: 9, Minute: 30}, "America/New_York", "America/New_York", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, got.Time)
	assert.Equal(t, "EST", got.Abbrev)
	assert.Equal(t, 0, got.DayOffset)
}

func TestConvertDayOffset(t *testing.T) {
	// 22:00 in Los Angeles is 06:00 the next day in UTC.
	forward, err := Convert(TimeOfDay{Hour: 22}, "America/Los_Angeles", "UTC", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 6}, forward.Time)
	assert.Equal(t, 1, forward.DayOffset)

	// 01:00 UTC is 17:00 the previous day in Los Angeles.
	backward, err := Convert(TimeOfDay{Hour: 1}, "UTC", "America/Los_Angeles", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 17}, backward.Time)
	assert.Equal(t, -1, backward.DayOffset)
}

func TestConvertUnknownZone(t *testing.T) {
	_, err := Convert(TimeOfDay{Hour: 9}, "Not/AZone", "UTC", "2024-01-15")
	require.Error(t, err)
	var tzErr *TimezoneConversionError
	require.ErrorAs(t, err, &tzErr)
	assert.Equal(t, "Not/AZone", tzErr.Zone)

	_, err = Convert(TimeOfDay{Hour: 9}, "UTC", "Not/AZone", "2024-01-15")
	require.Error(t, err)
}
