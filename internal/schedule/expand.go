package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// RawOccurrence is one candidate class session before deduplication and
// viewer-timezone conversion. VariantID disambiguates which schedule slot of
// a multi-schedule class produced it; ClassID is always the base identity.
type RawOccurrence struct {
	VariantID       string
	ClassID         string
	Date            models.DateKey
	StartTime       string
	EndTime         string
	Timezone        string
	RescheduledFrom models.DateKey
}

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Expand enumerates every date in the requested month on which the class
// recurs naturally. Dates before the class start date are excluded; the end
// date, when present, is an inclusive boundary. Multi-schedule classes emit
// from all their weekday slots, tagged with the producing slot so the
// per-date time stays recoverable.
func Expand(class models.ClassDefinition, month time.Month, year int) ([]RawOccurrence, []models.ResolverWarning) {
	var occurrences []RawOccurrence
	var warnings []models.ResolverWarning

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	for i, slot := range class.ActiveSlots() {
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: class.ID,
				Code:    models.WarnBadSchedule,
				Message: fmt.Sprintf("schedule slot %d has invalid weekday %d", i, slot.DayOfWeek),
			})
			continue
		}

		start := monthStart
		if classStart := dateOnly(class.StartDate); classStart.After(start) {
			start = classStart
		}
		until := monthEnd
		if class.EndDate != nil {
			if classEnd := dateOnly(*class.EndDate); classEnd.Before(until) {
				until = classEnd
			}
		}
		if until.Before(start) {
			continue
		}

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekdays[slot.DayOfWeek]},
			Dtstart:   start,
			Until:     until,
		})
		if err != nil {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: class.ID,
				Code:    models.WarnBadSchedule,
				Message: fmt.Sprintf("schedule slot %d: %v", i, err),
			})
			continue
		}

		variant := class.ID
		if class.ScheduleType == models.ScheduleTypeMultiple {
			variant = class.ID + "#" + strconv.Itoa(i)
		}

		for _, d := range rule.All() {
			occurrences = append(occurrences, RawOccurrence{
				VariantID: variant,
				ClassID:   class.ID,
				Date:      models.NewDateKey(d),
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Timezone:  slot.Timezone,
			})
		}
	}

	return occurrences, warnings
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
