package models

import "time"

// PaymentType discriminates weekly-interval from monthly-option billing.
type PaymentType string

const (
	PaymentWeekly  PaymentType = "weekly"
	PaymentMonthly PaymentType = "monthly"
)

// MonthlyOption selects the day of month a monthly payment falls due.
type MonthlyOption string

const (
	MonthlyFirst   MonthlyOption = "first"
	MonthlyFifteen MonthlyOption = "fifteen"
	MonthlyLast    MonthlyOption = "last"
)

// PaymentConfig is the billing rule attached to a class. Exactly one of
// WeeklyInterval / MonthlyOption is populated depending on Type.
type PaymentConfig struct {
	ClassID        string         `db:"class_id" json:"class_id"`
	Type           PaymentType    `db:"type" json:"type"`
	WeeklyInterval *int           `db:"weekly_interval" json:"weekly_interval,omitempty"`
	MonthlyOption  *MonthlyOption `db:"monthly_option" json:"monthly_option,omitempty"`
	Amount         float64        `db:"amount" json:"amount"`
	Currency       string         `db:"currency" json:"currency"`
	PaymentLink    *string        `db:"payment_link" json:"payment_link,omitempty"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// PaymentRecord marks a due date as settled.
type PaymentRecord struct {
	ID      string    `db:"id" json:"id"`
	ClassID string    `db:"class_id" json:"class_id"`
	DueDate time.Time `db:"due_date" json:"due_date"`
	Amount  float64   `db:"amount" json:"amount"`
	PaidAt  time.Time `db:"paid_at" json:"paid_at"`
}
