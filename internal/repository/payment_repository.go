package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// PaymentRepository persists billing rules and reads settled payment
// records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetConfig fetches the billing rule for one class.
func (r *PaymentRepository) GetConfig(ctx context.Context, classID string) (*models.PaymentConfig, error) {
	const query = `SELECT class_id, type, weekly_interval, monthly_option, amount, currency, payment_link, updated_at
FROM payment_configs WHERE class_id = $1`
	var cfg models.PaymentConfig
	if err := r.db.GetContext(ctx, &cfg, query, classID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertConfig creates or replaces the billing rule for a class.
func (r *PaymentRepository) UpsertConfig(ctx context.Context, cfg *models.PaymentConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO payment_configs (class_id, type, weekly_interval, monthly_option, amount, currency, payment_link, updated_at)
VALUES (:class_id, :type, :weekly_interval, :monthly_option, :amount, :currency, :payment_link, :updated_at)
ON CONFLICT (class_id) DO UPDATE SET type = EXCLUDED.type, weekly_interval = EXCLUDED.weekly_interval,
monthly_option = EXCLUDED.monthly_option, amount = EXCLUDED.amount, currency = EXCLUDED.currency,
payment_link = EXCLUDED.payment_link, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert payment config: %w", err)
	}
	return nil
}

// DeleteConfig removes the billing rule for a class.
func (r *PaymentRepository) DeleteConfig(ctx context.Context, classID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM payment_configs WHERE class_id = $1", classID)
	if err != nil {
		return fmt.Errorf("delete payment config: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("payment config delete rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type paidRow struct {
	ClassID string    `db:"class_id"`
	DueDate time.Time `db:"due_date"`
}

// PaidForRange reports which due dates have a settled payment record, keyed
// by the canonical class/date join key.
func (r *PaymentRepository) PaidForRange(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	var rows []paidRow
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT class_id, due_date FROM payment_records WHERE due_date BETWEEN $1 AND $2", from, to); err != nil {
		return nil, fmt.Errorf("load payment records: %w", err)
	}
	result := make(map[string]bool, len(rows))
	for _, row := range rows {
		result[models.JoinKey(row.ClassID, models.NewDateKey(row.DueDate))] = true
	}
	return result, nil
}
