package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorcal/tutorcal-api/internal/models"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
)

type mockClassRepo struct {
	items      map[string]*models.ClassDefinition
	listResult []models.ClassDefinition
	listTotal  int
	deleted    []string
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDefinition, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.ClassDefinition, error) {
	if class, ok := m.items[id]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.ClassDefinition) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassDefinition)
	}
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.ClassDefinition) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassDefinition)
	}
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func validClassRequest() ClassRequest {
	return ClassRequest{
		Name:         "Algebra",
		ScheduleType: "single",
		Schedules: []ScheduleSlotRequest{
			{DayOfWeek: 1, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "America/New_York"},
		},
		StartDate:     time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
		StudentEmails: []string{"student@example.com"},
	}
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	registry := NewInvalidationRegistry()
	svc := NewClassService(repo, registry, nil, zap.NewNop())

	class, err := svc.Create(context.Background(), validClassRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "Algebra", class.Name)
	require.Len(t, class.Schedules, 1)
	assert.Equal(t, class.ID, class.Schedules[0].ClassID)
	assert.Equal(t, int64(1), registry.Epoch(), "create must bump the cache epoch")

	stored, err := repo.FindByID(context.Background(), class.ID)
	require.NoError(t, err)
	assert.Equal(t, class.Name, stored.Name)
}

func TestClassServiceCreateValidation(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	cases := []struct {
		name   string
		mutate func(*ClassRequest)
	}{
		{"missing name", func(r *ClassRequest) { r.Name = "" }},
		{"unknown schedule type", func(r *ClassRequest) { r.ScheduleType = "biweekly" }},
		{"no slots", func(r *ClassRequest) { r.Schedules = nil }},
		{"single with two slots", func(r *ClassRequest) {
			r.Schedules = append(r.Schedules, ScheduleSlotRequest{DayOfWeek: 3, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "UTC"})
		}},
		{"duplicate weekday", func(r *ClassRequest) {
			r.ScheduleType = "multiple"
			r.Schedules = append(r.Schedules, ScheduleSlotRequest{DayOfWeek: 1, StartTime: "2:00 PM", EndTime: "3:00 PM", Timezone: "UTC"})
		}},
		{"bad start time", func(r *ClassRequest) { r.Schedules[0].StartTime = "soon" }},
		{"end before start", func(r *ClassRequest) {
			r.Schedules[0].StartTime = "3:00 PM"
			r.Schedules[0].EndTime = "2:00 PM"
		}},
		{"bad timezone", func(r *ClassRequest) { r.Schedules[0].Timezone = "Not/AZone" }},
		{"bad email", func(r *ClassRequest) { r.StudentEmails = []string{"not-an-email"} }},
		{"end date before start date", func(r *ClassRequest) {
			end := r.StartDate.AddDate(0, 0, -1)
			r.EndDate = &end
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validClassRequest()
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestClassServiceUpdatePreservesIdentity(t *testing.T) {
	repo := &mockClassRepo{}
	registry := NewInvalidationRegistry()
	svc := NewClassService(repo, registry, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), validClassRequest())
	require.NoError(t, err)

	req := validClassRequest()
	req.Name = "Algebra II"
	updated, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Algebra II", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, int64(2), registry.Epoch())
}

func TestClassServiceUpdateMissingClass(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())
	_, err := svc.Update(context.Background(), "missing", validClassRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestClassServiceGetMissingClass(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassServiceDeleteMissingClass(t *testing.T) {
	registry := NewInvalidationRegistry()
	svc := NewClassService(&mockClassRepo{}, registry, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Equal(t, int64(0), registry.Epoch(), "a failed delete must not bump the cache epoch")
}

func TestClassServiceDelete(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.ClassDefinition{"class-1": {ID: "class-1"}}}
	registry := NewInvalidationRegistry()
	svc := NewClassService(repo, registry, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "class-1"))
	assert.Equal(t, []string{"class-1"}, repo.deleted)
	assert.Equal(t, int64(1), registry.Epoch())
}
