package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// ExceptionRepository persists per-class occurrence overrides.
type ExceptionRepository struct {
	db *sqlx.DB
}

// NewExceptionRepository constructs an exception repository.
func NewExceptionRepository(db *sqlx.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

const exceptionColumns = `id, class_id, type, original_date, original_start_time, original_end_time,
new_date, new_start_time, new_end_time, timezone, reason, created_by, created_at`

// ListByClass returns every exception owned by one class.
func (r *ExceptionRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassException, error) {
	query := fmt.Sprintf("SELECT %s FROM class_exceptions WHERE class_id = $1 ORDER BY original_date ASC", exceptionColumns)
	var exceptions []models.ClassException
	if err := r.db.SelectContext(ctx, &exceptions, query, classID); err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	return exceptions, nil
}

// ListForRange returns exceptions for the given classes whose original or new
// date falls within [from, to], grouped by class. Matching on the new date
// catches reschedules landing in the window from adjacent months.
func (r *ExceptionRepository) ListForRange(ctx context.Context, classIDs []string, from, to time.Time) (map[string][]models.ClassException, error) {
	result := make(map[string][]models.ClassException, len(classIDs))
	if len(classIDs) == 0 {
		return result, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM class_exceptions
WHERE class_id = ANY($1) AND (original_date BETWEEN $2 AND $3 OR new_date BETWEEN $2 AND $3)
ORDER BY class_id, original_date ASC`, exceptionColumns)
	var exceptions []models.ClassException
	if err := r.db.SelectContext(ctx, &exceptions, query, pq.Array(classIDs), from, to); err != nil {
		return nil, fmt.Errorf("list exceptions for range: %w", err)
	}
	for _, exc := range exceptions {
		result[exc.ClassID] = append(result[exc.ClassID], exc)
	}
	return result, nil
}

// FindByID fetches one exception scoped to its owning class.
func (r *ExceptionRepository) FindByID(ctx context.Context, classID, id string) (*models.ClassException, error) {
	query := fmt.Sprintf("SELECT %s FROM class_exceptions WHERE class_id = $1 AND id = $2", exceptionColumns)
	var exc models.ClassException
	if err := r.db.GetContext(ctx, &exc, query, classID, id); err != nil {
		return nil, err
	}
	return &exc, nil
}

// CountForDate reports how many exceptions already target the original date.
func (r *ExceptionRepository) CountForDate(ctx context.Context, classID string, originalDate time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM class_exceptions WHERE class_id = $1 AND original_date = $2",
		classID, originalDate); err != nil {
		return 0, fmt.Errorf("count exceptions for date: %w", err)
	}
	return count, nil
}

// Create inserts an exception.
func (r *ExceptionRepository) Create(ctx context.Context, exc *models.ClassException) error {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO class_exceptions (id, class_id, type, original_date, original_start_time, original_end_time,
new_date, new_start_time, new_end_time, timezone, reason, created_by, created_at)
VALUES (:id, :class_id, :type, :original_date, :original_start_time, :original_end_time,
:new_date, :new_start_time, :new_end_time, :timezone, :reason, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("create exception: %w", err)
	}
	return nil
}

// Update rewrites an exception.
func (r *ExceptionRepository) Update(ctx context.Context, exc *models.ClassException) error {
	query := `UPDATE class_exceptions SET type = :type, original_date = :original_date,
original_start_time = :original_start_time, original_end_time = :original_end_time,
new_date = :new_date, new_start_time = :new_start_time, new_end_time = :new_end_time,
timezone = :timezone, reason = :reason
WHERE id = :id AND class_id = :class_id`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("update exception: %w", err)
	}
	return nil
}

// Delete removes one exception scoped to its owning class.
func (r *ExceptionRepository) Delete(ctx context.Context, classID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM class_exceptions WHERE class_id = $1 AND id = $2", classID, id)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exception delete rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
