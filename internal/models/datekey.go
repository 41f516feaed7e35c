package models

import "time"

const dateKeyLayout = "2006-01-02"

// DateKey is the canonical YYYY-MM-DD form of a calendar date. It is the only
// date representation used as a map or join key anywhere in the system, so
// exception overlays, material lookups and homework counts always agree on
// formatting.
type DateKey string

// NewDateKey builds a DateKey from the date portion of t.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// ParseDateKey validates and normalises a raw YYYY-MM-DD string.
func ParseDateKey(raw string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, raw)
	if err != nil {
		return "", err
	}
	return NewDateKey(t), nil
}

// Time returns the date as midnight UTC.
func (d DateKey) Time() (time.Time, error) {
	return time.Parse(dateKeyLayout, string(d))
}

// Valid reports whether the key is a well-formed calendar date.
func (d DateKey) Valid() bool {
	_, err := time.Parse(dateKeyLayout, string(d))
	return err == nil
}

// JoinKey builds the "<classID>_<YYYY-MM-DD>" key used by the materials,
// homework and payment-record lookup maps.
func JoinKey(classID string, date DateKey) string {
	return classID + "_" + string(date)
}
