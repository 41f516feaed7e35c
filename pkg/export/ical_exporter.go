package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// CalendarEntry is one event to serialize into an iCalendar feed.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// ICalExporter renders calendar entries into an iCalendar (RFC 5545) payload.
type ICalExporter struct {
	prodID string
}

// NewICalExporter constructs an exporter. prodID identifies the generator in
// the emitted feed.
func NewICalExporter(prodID string) *ICalExporter {
	if prodID == "" {
		prodID = "-//tutorcal//calendar//EN"
	}
	return &ICalExporter{prodID: prodID}
}

// Render serializes the entries into ICS bytes.
func (e *ICalExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.prodID)
	if name != "" {
		cal.SetName(name)
	}

	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry %q is missing a uid", entry.Summary)
		}
		ev := cal.AddEvent(entry.UID)
		ev.SetDtStampTime(time.Now().UTC())
		ev.SetStartAt(entry.Start)
		ev.SetEndAt(entry.End)
		ev.SetSummary(entry.Summary)
		if entry.Description != "" {
			ev.SetDescription(entry.Description)
		}
	}

	return []byte(cal.Serialize()), nil
}
