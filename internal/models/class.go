package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleType discriminates single-day from multi-day weekly classes.
type ScheduleType string

const (
	ScheduleTypeSingle   ScheduleType = "single"
	ScheduleTypeMultiple ScheduleType = "multiple"
)

// ScheduleSlot is one weekly recurrence entry: a weekday plus wall-clock
// start/end times interpreted in Timezone.
type ScheduleSlot struct {
	ID        string `db:"id" json:"id"`
	ClassID   string `db:"class_id" json:"class_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Timezone  string `db:"timezone" json:"timezone"`
}

// ClassDefinition is a recurring tutoring class. A single-type class has
// exactly one slot; a multiple-type class has one slot per active weekday,
// each weekday unique within the class.
type ClassDefinition struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	ScheduleType  ScheduleType   `db:"schedule_type" json:"schedule_type"`
	Schedules     []ScheduleSlot `json:"schedules"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       *time.Time     `db:"end_date" json:"end_date,omitempty"`
	StudentEmails pq.StringArray `db:"student_emails" json:"student_emails"`
	PaymentConfig *PaymentConfig `json:"payment_config,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ActiveSlots returns the recurrence entries that drive expansion. A
// single-type class contributes at most its first slot, so callers never need
// to re-check the discriminant against the slice shape.
func (c ClassDefinition) ActiveSlots() []ScheduleSlot {
	if c.ScheduleType == ScheduleTypeSingle && len(c.Schedules) > 1 {
		return c.Schedules[:1]
	}
	return c.Schedules
}

// HasStudent reports whether the email belongs to a participant.
func (c ClassDefinition) HasStudent(email string) bool {
	for _, e := range c.StudentEmails {
		if e == email {
			return true
		}
	}
	return false
}

// ClassFilter describes query params for listing classes.
type ClassFilter struct {
	Search    string
	ActiveOn  *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
