package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

// MaterialRepository reads the externally-maintained class material and
// homework records used to decorate calendar occurrences. Results are keyed
// by the canonical "<classID>_<YYYY-MM-DD>" join key.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a material repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

type materialRow struct {
	ClassID      string    `db:"class_id"`
	MaterialDate time.Time `db:"material_date"`
	HasSlides    bool      `db:"has_slides"`
	HasLinks     bool      `db:"has_links"`
}

// PresenceForRange returns slide/link presence per class/date.
func (r *MaterialRepository) PresenceForRange(ctx context.Context, from, to time.Time) (map[string]models.MaterialPresence, error) {
	var rows []materialRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT class_id, material_date, has_slides, has_links
FROM class_materials WHERE material_date BETWEEN $1 AND $2`, from, to); err != nil {
		return nil, fmt.Errorf("load material presence: %w", err)
	}
	result := make(map[string]models.MaterialPresence, len(rows))
	for _, row := range rows {
		key := models.JoinKey(row.ClassID, models.NewDateKey(row.MaterialDate))
		result[key] = models.MaterialPresence{HasSlides: row.HasSlides, HasLinks: row.HasLinks}
	}
	return result, nil
}

type homeworkRow struct {
	ClassID string    `db:"class_id"`
	DueDate time.Time `db:"due_date"`
	Count   int       `db:"count"`
}

// HomeworkCountsForRange returns the number of homework assignments due per
// class/date.
func (r *MaterialRepository) HomeworkCountsForRange(ctx context.Context, from, to time.Time) (map[string]int, error) {
	var rows []homeworkRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT class_id, due_date, COUNT(*) AS count
FROM homework_assignments WHERE due_date BETWEEN $1 AND $2
GROUP BY class_id, due_date`, from, to); err != nil {
		return nil, fmt.Errorf("load homework counts: %w", err)
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[models.JoinKey(row.ClassID, models.NewDateKey(row.DueDate))] = row.Count
	}
	return result, nil
}
