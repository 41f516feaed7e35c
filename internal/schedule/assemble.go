package schedule

import (
	"sort"
	"time"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// AssembleInput carries everything one month resolution needs. Inputs are
// already fetched; assembly itself performs no I/O.
type AssembleInput struct {
	Classes           []models.ClassDefinition
	ExceptionsByClass map[string][]models.ClassException
	Month             time.Month
	Year              int
	ViewerTimezone    string
}

// Assembler turns recurring class definitions, exception overlays and payment
// configuration into one CalendarMonth. It is total: a malformed class,
// schedule, exception or payment config is excluded with a warning and never
// aborts the month.
type Assembler struct {
	Clock Clock
}

// NewAssembler builds an assembler with the given clock, defaulting to the
// system clock.
func NewAssembler(clock Clock) Assembler {
	if clock == nil {
		clock = SystemClock{}
	}
	return Assembler{Clock: clock}
}

// Assemble resolves the requested month for every supplied class, converting
// occurrence times into the viewer's timezone. Output ordering is
// deterministic (date, then class id), and identical inputs produce
// structurally equal output.
func (a Assembler) Assemble(in AssembleInput) (*models.CalendarMonth, []models.ResolverWarning) {
	var warnings []models.ResolverWarning

	result := &models.CalendarMonth{
		Month:           int(in.Month),
		Year:            in.Year,
		Occurrences:     []models.ResolvedOccurrence{},
		PaymentDueDates: []models.PaymentDueDate{},
	}

	today := a.todayKey(in.ViewerTimezone)

	for _, class := range in.Classes {
		raw, w := Expand(class, in.Month, in.Year)
		warnings = append(warnings, w...)

		raw, w = ApplyExceptions(class.ID, raw, in.ExceptionsByClass[class.ID], in.Month, in.Year)
		warnings = append(warnings, w...)

		raw = Dedupe(raw)

		for _, occ := range raw {
			resolved, w := a.resolveOccurrence(class, occ, in.ViewerTimezone, today)
			warnings = append(warnings, w...)
			if resolved == nil {
				continue
			}
			result.Occurrences = append(result.Occurrences, *resolved)
		}

		if class.PaymentConfig != nil {
			dues, err := DueDates(*class.PaymentConfig, class.StartDate, class.EndDate, in.Month, in.Year)
			if err != nil {
				warnings = append(warnings, models.ResolverWarning{
					ClassID: class.ID,
					Code:    models.WarnBadPayment,
					Message: err.Error(),
				})
			}
			for _, due := range dues {
				entry := models.PaymentDueDate{
					Date:     due,
					ClassID:  class.ID,
					Amount:   class.PaymentConfig.Amount,
					Currency: class.PaymentConfig.Currency,
				}
				if class.PaymentConfig.PaymentLink != nil {
					entry.PaymentLink = *class.PaymentConfig.PaymentLink
				}
				result.PaymentDueDates = append(result.PaymentDueDates, entry)
			}
		}
	}

	sort.Slice(result.Occurrences, func(i, j int) bool {
		a, b := result.Occurrences[i], result.Occurrences[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ClassID < b.ClassID
	})
	sort.Slice(result.PaymentDueDates, func(i, j int) bool {
		a, b := result.PaymentDueDates[i], result.PaymentDueDates[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ClassID < b.ClassID
	})

	return result, warnings
}

// resolveOccurrence parses and converts one raw occurrence into the viewer's
// timezone. A nil result means the occurrence was skipped.
func (a Assembler) resolveOccurrence(class models.ClassDefinition, occ RawOccurrence, viewerTZ string, today models.DateKey) (*models.ResolvedOccurrence, []models.ResolverWarning) {
	var warnings []models.ResolverWarning

	start, err := ParseTime(occ.StartTime)
	if err != nil {
		warnings = append(warnings, models.ResolverWarning{
			ClassID: occ.ClassID, Date: occ.Date,
			Code: models.WarnBadTime, Message: err.Error(),
		})
		return nil, warnings
	}
	end, err := ParseTime(occ.EndTime)
	if err != nil {
		warnings = append(warnings, models.ResolverWarning{
			ClassID: occ.ClassID, Date: occ.Date,
			Code: models.WarnBadTime, Message: err.Error(),
		})
		return nil, warnings
	}

	startConv, err := Convert(start, occ.Timezone, viewerTZ, occ.Date)
	if err != nil {
		// Unresolvable zone: fall back to the source wall clock.
		warnings = append(warnings, models.ResolverWarning{
			ClassID: occ.ClassID, Date: occ.Date,
			Code: models.WarnBadTimezone, Message: err.Error(),
		})
		startConv = Converted{Time: start, Abbrev: occ.Timezone}
	}
	endConv, err := Convert(end, occ.Timezone, viewerTZ, occ.Date)
	if err != nil {
		endConv = Converted{Time: end, Abbrev: occ.Timezone}
	}

	resolved := &models.ResolvedOccurrence{
		ClassID:       BaseClassID(occ.VariantID),
		ClassName:     class.Name,
		Date:          occ.Date,
		StartTime:     startConv.Time.Format12(),
		EndTime:       endConv.Time.Format12(),
		Timezone:      startConv.Abbrev,
		IsRescheduled: occ.RescheduledFrom != "",
		IsToday:       occ.Date == today,
	}
	if occ.RescheduledFrom != "" {
		resolved.RescheduledFrom = occ.RescheduledFrom
	}
	return resolved, warnings
}

func (a Assembler) todayKey(viewerTZ string) models.DateKey {
	now := a.Clock.Now()
	if loc, err := time.LoadLocation(viewerTZ); err == nil {
		now = now.In(loc)
	}
	return models.NewDateKey(now)
}
