package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// InvalidPaymentConfigError reports a billing rule that cannot produce due
// dates. The affected class simply contributes none.
type InvalidPaymentConfigError struct {
	ClassID string
	Reason  string
}

func (e *InvalidPaymentConfigError) Error() string {
	return fmt.Sprintf("payment config for class %s: %s", e.ClassID, e.Reason)
}

// DueDates produces the payment due dates for one class in the requested
// month. Weekly configs recur every N weeks anchored at the class start date;
// monthly configs fall on the 1st, 15th or last calendar day. Payment timing
// is independent of class timing, so a due date needs no class session that
// day. No due date is produced before the class start date or past the class
// end date.
func DueDates(cfg models.PaymentConfig, classStart time.Time, classEnd *time.Time, month time.Month, year int) ([]models.DateKey, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	var candidates []time.Time
	switch cfg.Type {
	case models.PaymentWeekly:
		if cfg.WeeklyInterval == nil || *cfg.WeeklyInterval < 1 {
			return nil, &InvalidPaymentConfigError{ClassID: cfg.ClassID, Reason: "weekly config requires a positive interval"}
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:     rrule.WEEKLY,
			Interval: *cfg.WeeklyInterval,
			Dtstart:  dateOnly(classStart),
			Until:    monthEnd,
		})
		if err != nil {
			return nil, &InvalidPaymentConfigError{ClassID: cfg.ClassID, Reason: err.Error()}
		}
		candidates = rule.Between(monthStart, monthEnd, true)

	case models.PaymentMonthly:
		if cfg.MonthlyOption == nil {
			return nil, &InvalidPaymentConfigError{ClassID: cfg.ClassID, Reason: "monthly config requires an option"}
		}
		var due time.Time
		switch *cfg.MonthlyOption {
		case models.MonthlyFirst:
			due = monthStart
		case models.MonthlyFifteen:
			due = time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
		case models.MonthlyLast:
			due = monthEnd
		default:
			return nil, &InvalidPaymentConfigError{ClassID: cfg.ClassID, Reason: fmt.Sprintf("unknown monthly option %q", *cfg.MonthlyOption)}
		}
		candidates = []time.Time{due}

	default:
		return nil, &InvalidPaymentConfigError{ClassID: cfg.ClassID, Reason: fmt.Sprintf("unknown payment type %q", cfg.Type)}
	}

	start := dateOnly(classStart)
	dues := make([]models.DateKey, 0, len(candidates))
	for _, c := range candidates {
		c = dateOnly(c)
		if c.Before(start) {
			continue
		}
		if classEnd != nil && c.After(dateOnly(*classEnd)) {
			continue
		}
		dues = append(dues, models.NewDateKey(c))
	}
	return dues, nil
}
