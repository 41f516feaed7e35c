package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// ClassRepository manages persistence for recurring classes and their weekly
// schedule slots.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = "id, name, schedule_type, start_date, end_date, student_emails, created_at, updated_at"

// List returns classes matching filter criteria, hydrated with their slots
// and payment configs.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDefinition, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.ActiveOn != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d AND (end_date IS NULL OR end_date >= $%d)", len(args)+1, len(args)+1))
		args = append(args, *filter.ActiveOn)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "start_date": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, sortBy, order, size, offset)
	var classes []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	if err := r.hydrate(ctx, classes); err != nil {
		return nil, 0, err
	}
	return classes, total, nil
}

// ListVisible returns every class the viewer may see: all classes for admins
// and tutors, only participating classes for students.
func (r *ClassRepository) ListVisible(ctx context.Context, viewer models.Viewer) ([]models.ClassDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM classes", classColumns)
	var args []interface{}
	if viewer.Role == models.RoleStudent {
		query += " WHERE $1 = ANY(student_emails)"
		args = append(args, viewer.Email)
	}
	query += " ORDER BY created_at ASC"

	var classes []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list visible classes: %w", err)
	}
	if err := r.hydrate(ctx, classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// FindByID fetches one class with its slots and payment config.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.ClassDefinition
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	classes := []models.ClassDefinition{class}
	if err := r.hydrate(ctx, classes); err != nil {
		return nil, err
	}
	return &classes[0], nil
}

// Create inserts a class and its schedule slots in one transaction.
func (r *ClassRepository) Create(ctx context.Context, class *models.ClassDefinition) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO classes (id, name, schedule_type, start_date, end_date, student_emails, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		class.ID, class.Name, class.ScheduleType, class.StartDate, class.EndDate,
		pq.StringArray(class.StudentEmails), class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	if err = insertSlots(ctx, tx, class.ID, class.Schedules); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create class: %w", err)
	}
	return nil
}

// Update rewrites a class and replaces its schedule slots.
func (r *ClassRepository) Update(ctx context.Context, class *models.ClassDefinition) error {
	class.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE classes SET name = $2, schedule_type = $3, start_date = $4, end_date = $5, student_emails = $6, updated_at = $7
WHERE id = $1`,
		class.ID, class.Name, class.ScheduleType, class.StartDate, class.EndDate,
		pq.StringArray(class.StudentEmails), class.UpdatedAt); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM class_schedule_slots WHERE class_id = $1", class.ID); err != nil {
		return fmt.Errorf("clear class slots: %w", err)
	}
	if err = insertSlots(ctx, tx, class.ID, class.Schedules); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update class: %w", err)
	}
	return nil
}

// Delete removes a class. Exceptions, slots and payment configs are owned by
// the class and removed by FK cascade.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("class delete rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertSlots(ctx context.Context, tx *sqlx.Tx, classID string, slots []models.ScheduleSlot) error {
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.ClassID = classID
		if _, err := tx.ExecContext(ctx, `INSERT INTO class_schedule_slots (id, class_id, day_of_week, start_time, end_time, timezone)
VALUES ($1, $2, $3, $4, $5, $6)`,
			slot.ID, slot.ClassID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.Timezone); err != nil {
			return fmt.Errorf("insert class slot: %w", err)
		}
	}
	return nil
}

// hydrate loads schedule slots and payment configs for the class batch.
func (r *ClassRepository) hydrate(ctx context.Context, classes []models.ClassDefinition) error {
	if len(classes) == 0 {
		return nil
	}
	ids := make([]string, len(classes))
	index := make(map[string]*models.ClassDefinition, len(classes))
	for i := range classes {
		ids[i] = classes[i].ID
		index[classes[i].ID] = &classes[i]
	}

	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots,
		`SELECT id, class_id, day_of_week, start_time, end_time, timezone
FROM class_schedule_slots WHERE class_id = ANY($1) ORDER BY class_id, day_of_week`, pq.Array(ids)); err != nil {
		return fmt.Errorf("load class slots: %w", err)
	}
	for _, slot := range slots {
		if class, ok := index[slot.ClassID]; ok {
			class.Schedules = append(class.Schedules, slot)
		}
	}

	var configs []models.PaymentConfig
	if err := r.db.SelectContext(ctx, &configs,
		`SELECT class_id, type, weekly_interval, monthly_option, amount, currency, payment_link, updated_at
FROM payment_configs WHERE class_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("load payment configs: %w", err)
	}
	for i := range configs {
		if class, ok := index[configs[i].ClassID]; ok {
			cfg := configs[i]
			class.PaymentConfig = &cfg
		}
	}
	return nil
}
