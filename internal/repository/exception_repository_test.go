package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcal/tutorcal-api/internal/models"
)

func exceptionColumnsList() []string {
	return []string{"id", "class_id", "type", "original_date", "original_start_time", "original_end_time",
		"new_date", "new_start_time", "new_end_time", "timezone", "reason", "created_by", "created_at"}
}

func TestExceptionRepositoryListForRangeGroupsByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	rows := sqlmock.NewRows(exceptionColumnsList()).
		AddRow("exc-1", "class-1", "cancelled", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), "9:00 AM", "10:00 AM",
			nil, nil, nil, "America/New_York", nil, "tutor@example.com", time.Now()).
		AddRow("exc-2", "class-1", "rescheduled", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "9:00 AM", "10:00 AM",
			time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), "11:00 AM", "12:00 PM", "America/New_York", nil, "tutor@example.com", time.Now()).
		AddRow("exc-3", "class-2", "cancelled", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "2:00 PM", "3:00 PM",
			nil, nil, nil, "UTC", nil, "tutor@example.com", time.Now())

	mock.ExpectQuery("original_date BETWEEN .* OR new_date BETWEEN").
		WillReturnRows(rows)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	grouped, err := repo.ListForRange(context.Background(), []string{"class-1", "class-2"}, from, to)
	require.NoError(t, err)
	assert.Len(t, grouped["class-1"], 2)
	assert.Len(t, grouped["class-2"], 1)
	assert.True(t, grouped["class-1"][1].IsReschedulable())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionRepositoryListForRangeNoClasses(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	grouped, err := repo.ListForRange(context.Background(), nil, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, grouped)
}

func TestExceptionRepositoryCountForDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_exceptions WHERE class_id = $1 AND original_date = $2")).
		WithArgs("class-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountForDate(context.Background(), "class-1", date)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_exceptions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exc := &models.ClassException{
		ClassID:           "class-1",
		Type:              models.ExceptionCancelled,
		OriginalDate:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		OriginalStartTime: "9:00 AM",
		OriginalEndTime:   "10:00 AM",
		Timezone:          "America/New_York",
		CreatedBy:         "tutor@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), exc))
	assert.NotEmpty(t, exc.ID)
	assert.False(t, exc.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_exceptions WHERE class_id = $1 AND id = $2")).
		WithArgs("class-1", "exc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "class-1", "exc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_exceptions WHERE class_id = $1 AND id = $2")).
		WithArgs("class-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "class-1", "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
