package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

func mondayClass(start time.Time, end *time.Time) models.ClassDefinition {
	return models.ClassDefinition{
		ID:           "class-1",
		Name:         "Algebra",
		ScheduleType: models.ScheduleTypeSingle,
		Schedules: []models.ScheduleSlot{
			{DayOfWeek: 1, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "America/New_York"},
		},
		StartDate: start,
		EndDate:   end,
	}
}

func occurrenceDates(occs []RawOccurrence) []string {
	dates := make([]string, len(occs))
	for i, occ := range occs {
		dates[i] = string(occ.Date)
	}
	return dates
}

func TestExpandWeeklyMondays(t *testing.T) {
	class := mondayClass(time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), nil)

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}, occurrenceDates(occs))

	for _, occ := range occs {
		assert.Equal(t, "class-1", occ.ClassID)
		assert.Equal(t, "class-1", occ.VariantID)
		assert.Equal(t, "9:00 AM", occ.StartTime)
		assert.Equal(t, models.DateKey(""), occ.RescheduledFrom)
	}
}

func TestExpandRespectsClassStartDate(t *testing.T) {
	class := mondayClass(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), nil)

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"2024-01-15", "2024-01-22", "2024-01-29"}, occurrenceDates(occs))
}

func TestExpandClassEndDateIsInclusive(t *testing.T) {
	end := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	class := mondayClass(time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), &end)

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15"}, occurrenceDates(occs))
}

func TestExpandClassEndedBeforeMonth(t *testing.T) {
	end := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	class := mondayClass(time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), &end)

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	assert.Empty(t, occs)
}

func TestExpandMultipleSchedule(t *testing.T) {
	class := models.ClassDefinition{
		ID:           "class-2",
		ScheduleType: models.ScheduleTypeMultiple,
		Schedules: []models.ScheduleSlot{
			{DayOfWeek: 1, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "UTC"},
			{DayOfWeek: 3, StartTime: "2:00 PM", EndTime: "3:00 PM", Timezone: "UTC"},
		},
		StartDate: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	// 5 Mondays and 5 Wednesdays in January 2024.
	assert.Len(t, occs, 10)

	variants := map[string]int{}
	for _, occ := range occs {
		variants[occ.VariantID]++
		assert.Equal(t, "class-2", occ.ClassID)
	}
	assert.Equal(t, map[string]int{"class-2#0": 5, "class-2#1": 5}, variants)
}

func TestExpandSingleScheduleUsesFirstSlotOnly(t *testing.T) {
	class := models.ClassDefinition{
		ID:           "class-3",
		ScheduleType: models.ScheduleTypeSingle,
		Schedules: []models.ScheduleSlot{
			{DayOfWeek: 1, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "UTC"},
			{DayOfWeek: 3, StartTime: "2:00 PM", EndTime: "3:00 PM", Timezone: "UTC"},
		},
		StartDate: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	occs, warnings := Expand(class, time.January, 2024)
	require.Empty(t, warnings)
	assert.Len(t, occs, 5)
	for _, occ := range occs {
		assert.Equal(t, "9:00 AM", occ.StartTime)
	}
}

func TestExpandInvalidWeekdayWarns(t *testing.T) {
	class := models.ClassDefinition{
		ID:           "class-4",
		ScheduleType: models.ScheduleTypeSingle,
		Schedules: []models.ScheduleSlot{
			{DayOfWeek: 7, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "UTC"},
		},
		StartDate: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	occs, warnings := Expand(class, time.January, 2024)
	assert.Empty(t, occs)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnBadSchedule, warnings[0].Code)
	assert.Equal(t, "class-4", warnings[0].ClassID)
}
