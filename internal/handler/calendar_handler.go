package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorcal/tutorcal-api/internal/middleware"
	"github.com/tutorcal/tutorcal-api/internal/models"
	"github.com/tutorcal/tutorcal-api/internal/schedule"
	"github.com/tutorcal/tutorcal-api/internal/service"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
	"github.com/tutorcal/tutorcal-api/pkg/export"
	"github.com/tutorcal/tutorcal-api/pkg/response"
)

// CalendarHandler exposes the resolved monthly calendar and its export
// formats.
type CalendarHandler struct {
	service *service.CalendarService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	ical    *export.ICalExporter
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		ical:    export.NewICalExporter(""),
	}
}

// Month godoc
// @Summary Resolved calendar for one month
// @Tags Calendar
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param tz query string false "Viewer timezone (IANA name)"
// @Success 200 {object} response.Envelope
// @Router /calendar/{year}/{month} [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	viewer, year, month, tz, err := h.monthParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Month(c.Request.Context(), viewer, year, month, tz)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{}
	if len(result.Warnings) > 0 {
		meta["warnings"] = result.Warnings
	}
	response.JSON(c, http.StatusOK, result.Calendar, nil, meta)
}

// Export godoc
// @Summary Export one month as CSV, PDF or ICS
// @Tags Calendar
// @Produce octet-stream
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param tz query string false "Viewer timezone (IANA name)"
// @Param format query string false "csv, pdf or ics" default(csv)
// @Success 200 {file} binary
// @Router /calendar/{year}/{month}/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	viewer, year, month, tz, err := h.monthParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Month(c.Request.Context(), viewer, year, month, tz)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("calendar-%04d-%02d", year, month)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(monthDataset(result.Calendar))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		title := fmt.Sprintf("Class calendar %s %d", time.Month(month), year)
		payload, err := h.pdf.Render(monthDataset(result.Calendar), title)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	case "ics":
		entries, err := monthEntries(result.Calendar, tz)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ics export failed"))
			return
		}
		payload, err := h.ical.Render(filename, entries)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ics export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.ics", filename))
		c.Data(http.StatusOK, "text/calendar", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or ics"))
	}
}

// InvalidateCache godoc
// @Summary Bump the calendar cache epoch
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cache/invalidate [post]
func (h *CalendarHandler) InvalidateCache(c *gin.Context) {
	epoch := h.service.Invalidation().Invalidate("")
	response.JSON(c, http.StatusOK, gin.H{"epoch": epoch}, nil)
}

func (h *CalendarHandler) monthParams(c *gin.Context) (models.Viewer, int, int, string, error) {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return models.Viewer{}, 0, 0, "", appErrors.ErrUnauthorized
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return models.Viewer{}, 0, 0, "", appErrors.Clone(appErrors.ErrValidation, "year must be an integer")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return models.Viewer{}, 0, 0, "", appErrors.Clone(appErrors.ErrValidation, "month must be an integer")
	}
	return viewer, year, month, c.Query("tz"), nil
}

func monthDataset(calendar *models.CalendarMonth) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Date", "Class", "Start", "End", "Timezone", "Rescheduled From", "Homework"},
	}
	for _, occ := range calendar.Occurrences {
		data.Rows = append(data.Rows, []string{
			string(occ.Date),
			occ.ClassName,
			occ.StartTime,
			occ.EndTime,
			occ.Timezone,
			string(occ.RescheduledFrom),
			strconv.Itoa(occ.HomeworkCount),
		})
	}
	return data
}

func monthEntries(calendar *models.CalendarMonth, tz string) ([]export.CalendarEntry, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	entries := make([]export.CalendarEntry, 0, len(calendar.Occurrences))
	for _, occ := range calendar.Occurrences {
		date, err := occ.Date.Time()
		if err != nil {
			return nil, err
		}
		start, err := schedule.ParseTime(occ.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseTime(occ.EndTime)
		if err != nil {
			return nil, err
		}
		entries = append(entries, export.CalendarEntry{
			UID:     models.JoinKey(occ.ClassID, occ.Date) + "@tutorcal",
			Summary: occ.ClassName,
			Start:   time.Date(date.Year(), date.Month(), date.Day(), start.Hour, start.Minute, 0, 0, loc),
			End:     time.Date(date.Year(), date.Month(), date.Day(), end.Hour, end.Minute, 0, 0, loc),
		})
	}
	return entries, nil
}
