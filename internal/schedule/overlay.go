package schedule

import (
	"fmt"
	"time"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// InvalidExceptionError reports an exception the overlay refused to apply.
type InvalidExceptionError struct {
	ExceptionID string
	Reason      string
}

func (e *InvalidExceptionError) Error() string {
	return fmt.Sprintf("exception %s: %s", e.ExceptionID, e.Reason)
}

// ApplyExceptions overlays a class's exceptions onto its naturally expanded
// occurrences for the requested month. Cancelled dates are dropped;
// rescheduled dates are dropped at the origin and re-emitted at the new date
// with the overridden time and timezone. A rescheduled exception whose
// original date lies outside the requested month still emits into it when the
// new date falls inside. Malformed exceptions are excluded with a warning,
// never fatal; where an exception-produced date collides with natural
// recurrence, the exception wins.
func ApplyExceptions(classID string, occurrences []RawOccurrence, exceptions []models.ClassException, month time.Month, year int) ([]RawOccurrence, []models.ResolverWarning) {
	var warnings []models.ResolverWarning

	byOriginal := make(map[models.DateKey]models.ClassException, len(exceptions))
	moved := make(map[models.DateKey]RawOccurrence)

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	for _, exc := range exceptions {
		if exc.ClassID != "" && exc.ClassID != classID {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: classID,
				Code:    models.WarnBadException,
				Message: fmt.Sprintf("exception %s belongs to class %s", exc.ID, exc.ClassID),
			})
			continue
		}
		if exc.Type != models.ExceptionCancelled && exc.Type != models.ExceptionRescheduled {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: classID,
				Code:    models.WarnBadException,
				Message: fmt.Sprintf("exception %s has unknown type %q", exc.ID, exc.Type),
			})
			continue
		}
		if exc.Type == models.ExceptionRescheduled && !exc.IsReschedulable() {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: classID,
				Date:    models.NewDateKey(exc.OriginalDate),
				Code:    models.WarnBadException,
				Message: fmt.Sprintf("exception %s is rescheduled but missing new date or times", exc.ID),
			})
			continue
		}

		origKey := models.NewDateKey(exc.OriginalDate)
		if _, exists := byOriginal[origKey]; exists {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: classID,
				Date:    origKey,
				Code:    models.WarnDuplicateEntry,
				Message: fmt.Sprintf("multiple exceptions for %s; keeping the first", origKey),
			})
			continue
		}
		byOriginal[origKey] = exc

		if exc.Type != models.ExceptionRescheduled {
			continue
		}
		newDate := dateOnly(*exc.NewDate)
		if newDate.Before(monthStart) || newDate.After(monthEnd) {
			continue
		}
		newKey := models.NewDateKey(newDate)
		if _, taken := moved[newKey]; taken {
			warnings = append(warnings, models.ResolverWarning{
				ClassID: classID,
				Date:    newKey,
				Code:    models.WarnDuplicateEntry,
				Message: fmt.Sprintf("multiple reschedules land on %s; keeping the first", newKey),
			})
			continue
		}
		moved[newKey] = RawOccurrence{
			VariantID:       classID,
			ClassID:         classID,
			Date:            newKey,
			StartTime:       *exc.NewStartTime,
			EndTime:         *exc.NewEndTime,
			Timezone:        exc.Timezone,
			RescheduledFrom: origKey,
		}
	}

	result := make([]RawOccurrence, 0, len(occurrences)+len(moved))
	for _, occ := range occurrences {
		if _, overridden := byOriginal[occ.Date]; overridden {
			continue
		}
		if _, taken := moved[occ.Date]; taken {
			continue
		}
		result = append(result, occ)
	}
	for _, occ := range moved {
		result = append(result, occ)
	}

	return result, warnings
}
