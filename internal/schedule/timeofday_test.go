package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		raw    string
		hour   int
		minute int
	}{
		{"14:00", 14, 0},
		{"9:05", 9, 5},
		{"00:00", 0, 0},
		{"23:59", 23, 59},
		{"2:00 PM", 14, 0},
		{"2:00PM", 14, 0},
		{"2:00 pm", 14, 0},
		{"12:00 PM", 12, 0},
		{"12:00 AM", 0, 0},
		{"12:30", 12, 30},
		{" 7:15 am ", 7, 15},
	}
	for _, tc := range cases {
		got, err := ParseTime(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.hour, got.Hour, tc.raw)
		assert.Equal(t, tc.minute, got.Minute, tc.raw)
	}
}

func TestParseTimeRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "noon", "25:00", "9:60", "13:00 PM", "0:30 AM", "14", "9:5"} {
		_, err := ParseTime(raw)
		require.Error(t, err, raw)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, raw)
		assert.Equal(t, raw, perr.Raw)
	}
}

func TestFormat12(t *testing.T) {
	assert.Equal(t, "2:00 PM", TimeOfDay{Hour: 14}.Format12())
	assert.Equal(t, "12:05 AM", TimeOfDay{Minute: 5}.Format12())
	assert.Equal(t, "12:30 PM", TimeOfDay{Hour: 12, Minute: 30}.Format12())
	assert.Equal(t, "11:59 PM", TimeOfDay{Hour: 23, Minute: 59}.Format12())
	assert.Equal(t, "9:05 AM", TimeOfDay{Hour: 9, Minute: 5}.Format12())
}

func TestFormatRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		orig := TimeOfDay{Hour: hour, Minute: 30}

		from12, err := ParseTime(orig.Format12())
		require.NoError(t, err)
		assert.Equal(t, orig, from12)

		from24, err := ParseTime(orig.Format24())
		require.NoError(t, err)
		assert.Equal(t, orig, from24)
	}
}

func TestMinuteOfDay(t *testing.T) {
	assert.Equal(t, 0, TimeOfDay{}.MinuteOfDay())
	assert.Equal(t, 870, TimeOfDay{Hour: 14, Minute: 30}.MinuteOfDay())
}
