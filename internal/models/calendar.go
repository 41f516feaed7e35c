package models

// ResolvedOccurrence is one concrete class session on a calendar date, with
// times already converted to the viewer's timezone. ClassID is always the
// base class identity, never a schedule-variant form.
type ResolvedOccurrence struct {
	ClassID         string  `json:"class_id"`
	ClassName       string  `json:"class_name,omitempty"`
	Date            DateKey `json:"date"`
	StartTime       string  `json:"start_time"` // 12-hour display form, e.g. "2:00 PM"
	EndTime         string  `json:"end_time"`
	Timezone        string  `json:"timezone"` // viewer zone abbreviation, e.g. "EST"
	IsRescheduled   bool    `json:"is_rescheduled,omitempty"`
	RescheduledFrom DateKey `json:"rescheduled_from,omitempty"`
	IsToday         bool    `json:"is_today,omitempty"`
	HasSlides       bool    `json:"has_slides,omitempty"`
	HasLinks        bool    `json:"has_links,omitempty"`
	HomeworkCount   int     `json:"homework_count,omitempty"`
}

// PaymentDueDate is one date on which payment for a class is expected,
// independent of whether the class meets that day.
type PaymentDueDate struct {
	Date        DateKey `json:"date"`
	ClassID     string  `json:"class_id"`
	PaymentLink string  `json:"payment_link,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Paid        bool    `json:"paid"`
}

// CalendarMonth is the assembled result for one requested month. Callers must
// treat it as immutable; presentation state is derived from it, never written
// back.
type CalendarMonth struct {
	Month           int                  `json:"month"`
	Year            int                  `json:"year"`
	Occurrences     []ResolvedOccurrence `json:"occurrences"`
	PaymentDueDates []PaymentDueDate     `json:"payment_due_dates"`
}

// ResolverWarning is a non-fatal diagnostic collected during assembly. A
// malformed class, schedule, exception or payment config produces a warning
// and is excluded; it never aborts the month.
type ResolverWarning struct {
	ClassID string  `json:"class_id,omitempty"`
	Date    DateKey `json:"date,omitempty"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}

// Warning codes emitted by the resolver.
const (
	WarnBadTime        = "BAD_TIME"
	WarnBadTimezone    = "BAD_TIMEZONE"
	WarnBadSchedule    = "BAD_SCHEDULE"
	WarnBadException   = "BAD_EXCEPTION"
	WarnBadPayment     = "BAD_PAYMENT_CONFIG"
	WarnDuplicateEntry = "DUPLICATE_ENTRY"
)

// MaterialPresence mirrors the externally-maintained materials map for one
// class/date join key.
type MaterialPresence struct {
	HasSlides bool `db:"has_slides" json:"has_slides"`
	HasLinks  bool `db:"has_links" json:"has_links"`
}
