package schedule

import (
	"fmt"
	"time"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// TimezoneConversionError reports an unresolvable timezone identifier.
// Callers fall back to treating source and target as identical.
type TimezoneConversionError struct {
	Zone string
	Err  error
}

func (e *TimezoneConversionError) Error() string {
	return fmt.Sprintf("resolve timezone %q: %v", e.Zone, e.Err)
}

func (e *TimezoneConversionError) Unwrap() error { return e.Err }

// Converted is a wall-clock time expressed in the target timezone.
type Converted struct {
	Time TimeOfDay
	// Abbrev is the target zone's abbreviated name for the converted
	// instant (e.g. "EST" vs "EDT"), which varies with DST.
	Abbrev string
	// DayOffset is -1, 0 or +1 when the conversion crosses midnight
	// relative to the source calendar date.
	DayOffset int
}

// Convert computes the wall-clock time in targetTZ corresponding to t as
// understood in sourceTZ on the given calendar date. The date matters:
// offsets differ across DST transitions, so converting "09:00" on 2024-03-09
// and on 2024-03-11 can yield different results.
func Convert(t TimeOfDay, sourceTZ, targetTZ string, on models.DateKey) (Converted, error) {
	date, err := on.Time()
	if err != nil {
		return Converted{}, &TimezoneConversionError{Zone: sourceTZ, Err: err}
	}

	srcLoc, err := time.LoadLocation(sourceTZ)
	if err != nil {
		return Converted{}, &TimezoneConversionError{Zone: sourceTZ, Err: err}
	}

	instant := time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, srcLoc)

	if sourceTZ == targetTZ {
		abbrev, _ := instant.Zone()
		return Converted{Time: t, Abbrev: abbrev}, nil
	}

	dstLoc, err := time.LoadLocation(targetTZ)
	if err != nil {
		return Converted{}, &TimezoneConversionError{Zone: targetTZ, Err: err}
	}

	local := instant.In(dstLoc)
	abbrev, _ := local.Zone()

	offset := 0
	srcDay := time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, time.UTC)
	dstDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case dstDay.After(srcDay):
		offset = 1
	case dstDay.Before(srcDay):
		offset = -1
	}

	return Converted{
		Time:      TimeOfDay{Hour: local.Hour(), Minute: local.Minute()},
		Abbrev:    abbrev,
		DayOffset: offset,
	}, nil
}
