package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Date", "Class"},
		Rows: [][]string{
			{"2024-01-08", "Algebra"},
			{"2024-01-15", "Geometry"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Date,Class\n2024-01-08,Algebra\n2024-01-15,Geometry\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{
		Headers: []string{"Date", "Class"},
		Rows:    [][]string{{"2024-01-08"}},
	})
	assert.Error(t, err)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

func TestICalExporterRender(t *testing.T) {
	exporter := NewICalExporter("")
	start := time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC)
	out, err := exporter.Render("January 2024", []CalendarEntry{
		{
			UID:     "class-1_2024-01-08@tutorcal",
			Summary: "Algebra",
			Start:   start,
			End:     start.Add(time.Hour),
		},
	})
	require.NoError(t, err)
	ics := string(out)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "BEGIN:VEVENT")
	assert.Contains(t, ics, "UID:class-1_2024-01-08@tutorcal")
	assert.Contains(t, ics, "SUMMARY:Algebra")
	assert.Contains(t, ics, "DTSTART:20240108T140000Z")
	assert.Contains(t, ics, "PRODID:-//tutorcal//calendar//EN")
	assert.Contains(t, ics, "END:VCALENDAR")
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Date", "Class", "Start"},
		Rows:    [][]string{{"2024-01-08", "Algebra", "2:00 PM"}},
	}, "January 2024")
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
