package models

import "time"

// ExceptionType discriminates cancellation from reschedule overrides.
type ExceptionType string

const (
	ExceptionCancelled   ExceptionType = "cancelled"
	ExceptionRescheduled ExceptionType = "rescheduled"
)

// ClassException is an administrative override of a single occurrence. It is
// owned by its class and keyed on the original date: at most one exception
// may exist per (class, original date).
type ClassException struct {
	ID                string        `db:"id" json:"id"`
	ClassID           string        `db:"class_id" json:"class_id"`
	Type              ExceptionType `db:"type" json:"type"`
	OriginalDate      time.Time     `db:"original_date" json:"original_date"`
	OriginalStartTime string        `db:"original_start_time" json:"original_start_time"`
	OriginalEndTime   string        `db:"original_end_time" json:"original_end_time"`
	NewDate           *time.Time    `db:"new_date" json:"new_date,omitempty"`
	NewStartTime      *string       `db:"new_start_time" json:"new_start_time,omitempty"`
	NewEndTime        *string       `db:"new_end_time" json:"new_end_time,omitempty"`
	Timezone          string        `db:"timezone" json:"timezone"`
	Reason            *string       `db:"reason" json:"reason,omitempty"`
	CreatedBy         string        `db:"created_by" json:"created_by"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
}

// IsReschedulable reports whether a rescheduled exception carries every field
// required to emit the moved occurrence.
func (e ClassException) IsReschedulable() bool {
	return e.Type == ExceptionRescheduled &&
		e.NewDate != nil &&
		e.NewStartTime != nil && *e.NewStartTime != "" &&
		e.NewEndTime != nil && *e.NewEndTime != ""
}
