package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorcal/tutorcal-api/internal/models"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
)

type fakeCacheRepo struct {
	entries map[string][]byte
	getErr  error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	payload, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = payload
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = make(map[string][]byte)
	return nil
}

type fakeClassCatalog struct {
	classes []models.ClassDefinition
	err     error
	calls   int
}

func (f *fakeClassCatalog) ListVisible(ctx context.Context, viewer models.Viewer) ([]models.ClassDefinition, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if viewer.Role == models.RoleStudent {
		var visible []models.ClassDefinition
		for _, class := range f.classes {
			if class.HasStudent(viewer.Email) {
				visible = append(visible, class)
			}
		}
		return visible, nil
	}
	return f.classes, nil
}

type fakeExceptionSource struct {
	byClass map[string][]models.ClassException
}

func (f *fakeExceptionSource) ListForRange(ctx context.Context, classIDs []string, from, to time.Time) (map[string][]models.ClassException, error) {
	return f.byClass, nil
}

type fakeMaterialSource struct {
	presence map[string]models.MaterialPresence
	homework map[string]int
}

func (f *fakeMaterialSource) PresenceForRange(ctx context.Context, from, to time.Time) (map[string]models.MaterialPresence, error) {
	return f.presence, nil
}

func (f *fakeMaterialSource) HomeworkCountsForRange(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return f.homework, nil
}

type fakePaymentLedger struct {
	paid map[string]bool
}

func (f *fakePaymentLedger) PaidForRange(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	return f.paid, nil
}

func testClass() models.ClassDefinition {
	return models.ClassDefinition{
		ID:           "class-1",
		Name:         "Algebra",
		ScheduleType: models.ScheduleTypeSingle,
		Schedules: []models.ScheduleSlot{
			{DayOfWeek: 1, StartTime: "9:00 AM", EndTime: "10:00 AM", Timezone: "America/New_York"},
		},
		StartDate:     time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
		StudentEmails: []string{"student@example.com"},
	}
}

func newTestCalendarService(catalog *fakeClassCatalog, materials *fakeMaterialSource, payments *fakePaymentLedger, cacheRepo CacheRepository) (*CalendarService, *InvalidationRegistry) {
	if materials == nil {
		materials = &fakeMaterialSource{}
	}
	if payments == nil {
		payments = &fakePaymentLedger{}
	}
	registry := NewInvalidationRegistry()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	svc := NewCalendarService(catalog, &fakeExceptionSource{}, materials, payments, cacheSvc, registry, nil, nil, "UTC", zap.NewNop())
	return svc, registry
}

func TestCalendarServiceMonthValidation(t *testing.T) {
	svc, _ := newTestCalendarService(&fakeClassCatalog{}, nil, nil, nil)
	viewer := models.Viewer{Role: models.RoleAdmin}

	_, err := svc.Month(context.Background(), viewer, 2024, 0, "UTC")
	require.ErrorIs(t, err, appErrors.ErrInvalidMonth)

	_, err = svc.Month(context.Background(), viewer, 2024, 13, "UTC")
	require.ErrorIs(t, err, appErrors.ErrInvalidMonth)

	_, err = svc.Month(context.Background(), viewer, 2024, 1, "Not/AZone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceMonthResolves(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	svc, _ := newTestCalendarService(catalog, nil, nil, nil)

	result, err := svc.Month(context.Background(), models.Viewer{Role: models.RoleAdmin}, 2024, 1, "UTC")
	require.NoError(t, err)
	require.NotNil(t, result.Calendar)
	assert.Len(t, result.Calendar.Occurrences, 5)
	assert.Equal(t, "2:00 PM", result.Calendar.Occurrences[0].StartTime)
}

func TestCalendarServiceMonthUsesCache(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	svc, _ := newTestCalendarService(catalog, nil, nil, newFakeCacheRepo())
	viewer := models.Viewer{Role: models.RoleAdmin}

	first, err := svc.Month(context.Background(), viewer, 2024, 1, "UTC")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)

	second, err := svc.Month(context.Background(), viewer, 2024, 1, "UTC")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls, "second call should be served from cache")
	assert.Equal(t, first.Calendar, second.Calendar)
}

func TestCalendarServiceInvalidationBustsCache(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	svc, registry := newTestCalendarService(catalog, nil, nil, newFakeCacheRepo())
	viewer := models.Viewer{Role: models.RoleAdmin}

	_, err := svc.Month(context.Background(), viewer, 2024, 1, "UTC")
	require.NoError(t, err)
	require.Equal(t, 1, catalog.calls)

	registry.Invalidate("class-1")

	_, err = svc.Month(context.Background(), viewer, 2024, 1, "UTC")
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls, "invalidation must force a fresh resolve")
}

func TestCalendarServiceCacheFailureFallsThrough(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	cacheRepo := newFakeCacheRepo()
	cacheRepo.getErr = errors.New("redis down")
	svc, _ := newTestCalendarService(catalog, nil, nil, cacheRepo)

	result, err := svc.Month(context.Background(), models.Viewer{Role: models.RoleAdmin}, 2024, 1, "UTC")
	require.NoError(t, err)
	assert.Len(t, result.Calendar.Occurrences, 5)
}

func TestCalendarServiceStudentVisibility(t *testing.T) {
	other := testClass()
	other.ID = "class-2"
	other.Name = "Chemistry"
	other.StudentEmails = []string{"someone-else@example.com"}

	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass(), other}}
	svc, _ := newTestCalendarService(catalog, nil, nil, nil)

	student := models.Viewer{Role: models.RoleStudent, Email: "student@example.com"}
	result, err := svc.Month(context.Background(), student, 2024, 1, "UTC")
	require.NoError(t, err)
	for _, occ := range result.Calendar.Occurrences {
		assert.Equal(t, "class-1", occ.ClassID)
	}
	assert.Len(t, result.Calendar.Occurrences, 5)
}

func TestCalendarServiceViewerScopesDoNotShareCache(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	svc, _ := newTestCalendarService(catalog, nil, nil, newFakeCacheRepo())

	_, err := svc.Month(context.Background(), models.Viewer{Role: models.RoleAdmin}, 2024, 1, "UTC")
	require.NoError(t, err)

	student := models.Viewer{Role: models.RoleStudent, Email: "student@example.com"}
	_, err = svc.Month(context.Background(), student, 2024, 1, "UTC")
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls, "student scope must not reuse the admin cache entry")
}

func TestCalendarServiceDecoratesOccurrences(t *testing.T) {
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{testClass()}}
	materials := &fakeMaterialSource{
		presence: map[string]models.MaterialPresence{
			"class-1_2024-01-08": {HasSlides: true, HasLinks: true},
		},
		homework: map[string]int{"class-1_2024-01-15": 2},
	}
	svc, _ := newTestCalendarService(catalog, materials, nil, nil)

	result, err := svc.Month(context.Background(), models.Viewer{Role: models.RoleAdmin}, 2024, 1, "UTC")
	require.NoError(t, err)

	byDate := map[models.DateKey]models.ResolvedOccurrence{}
	for _, occ := range result.Calendar.Occurrences {
		byDate[occ.Date] = occ
	}
	assert.True(t, byDate["2024-01-08"].HasSlides)
	assert.True(t, byDate["2024-01-08"].HasLinks)
	assert.Equal(t, 2, byDate["2024-01-15"].HomeworkCount)
	assert.False(t, byDate["2024-01-01"].HasSlides)
	assert.Zero(t, byDate["2024-01-01"].HomeworkCount)
}

func TestCalendarServiceMarksPaidDues(t *testing.T) {
	class := testClass()
	class.PaymentConfig = &models.PaymentConfig{
		ClassID:       "class-1",
		Type:          models.PaymentMonthly,
		MonthlyOption: func() *models.MonthlyOption { o := models.MonthlyFirst; return &o }(),
		Amount:        100,
		Currency:      "USD",
	}
	catalog := &fakeClassCatalog{classes: []models.ClassDefinition{class}}
	payments := &fakePaymentLedger{paid: map[string]bool{"class-1_2024-01-01": true}}
	svc, _ := newTestCalendarService(catalog, nil, payments, nil)

	result, err := svc.Month(context.Background(), models.Viewer{Role: models.RoleAdmin}, 2024, 1, "UTC")
	require.NoError(t, err)
	require.Len(t, result.Calendar.PaymentDueDates, 1)
	assert.True(t, result.Calendar.PaymentDueDates[0].Paid)
}
