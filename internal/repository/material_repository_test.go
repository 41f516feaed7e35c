package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialRepositoryPresenceForRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"class_id", "material_date", "has_slides", "has_links"}).
		AddRow("class-1", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), true, false).
		AddRow("class-1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true, true)
	mock.ExpectQuery("SELECT class_id, material_date, has_slides, has_links").
		WithArgs(from, to).
		WillReturnRows(rows)

	presence, err := repo.PresenceForRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, presence, 2)
	assert.True(t, presence["class-1_2024-01-08"].HasSlides)
	assert.False(t, presence["class-1_2024-01-08"].HasLinks)
	assert.True(t, presence["class-1_2024-01-15"].HasLinks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryHomeworkCountsForRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"class_id", "due_date", "count"}).
		AddRow("class-1", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 2).
		AddRow("class-2", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id, due_date, COUNT(*) AS count")).
		WithArgs(from, to).
		WillReturnRows(rows)

	counts, err := repo.HomeworkCountsForRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["class-1_2024-01-08"])
	assert.Equal(t, 1, counts["class-2_2024-01-09"])
	assert.Zero(t, counts["class-1_2024-01-15"])
	require.NoError(t, mock.ExpectationsWereMet())
}
