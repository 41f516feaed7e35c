package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeOfDay is a normalized 24-hour wall-clock value.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseError reports an unparseable or out-of-range time string.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse time %q: %s", e.Raw, e.Reason)
}

var timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])?$`)

// ParseTime accepts "H:MM", "HH:MM" and "H:MM AM/PM" (meridiem
// case-insensitive, space optional). Input without a meridiem is a 24-hour
// literal, so a bare "12:00" means noon.
func ParseTime(raw string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(raw)
	m := timePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "not a H:MM time"}
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "non-numeric hour"}
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "non-numeric minute"}
	}
	if minute > 59 {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "minute out of range"}
	}

	meridiem := strings.ToUpper(m[3])
	if meridiem == "" {
		if hour > 23 {
			return TimeOfDay{}, &ParseError{Raw: raw, Reason: "hour out of range"}
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	if hour < 1 || hour > 12 {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "hour out of range for 12-hour time"}
	}
	if meridiem == "PM" && hour < 12 {
		hour += 12
	}
	if meridiem == "AM" && hour == 12 {
		hour = 0
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Format12 renders the value as "H:MM AM/PM".
func (t TimeOfDay) Format12() string {
	meridiem := "AM"
	hour := t.Hour
	if hour >= 12 {
		meridiem = "PM"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute, meridiem)
}

// Format24 renders the value as "HH:MM".
func (t TimeOfDay) Format24() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns minutes since midnight, useful for ordering.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}
