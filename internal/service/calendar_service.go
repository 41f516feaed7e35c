package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorcal/tutorcal-api/internal/models"
	"github.com/tutorcal/tutorcal-api/internal/schedule"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
)

type classCatalog interface {
	ListVisible(ctx context.Context, viewer models.Viewer) ([]models.ClassDefinition, error)
}

type exceptionSource interface {
	ListForRange(ctx context.Context, classIDs []string, from, to time.Time) (map[string][]models.ClassException, error)
}

type materialSource interface {
	PresenceForRange(ctx context.Context, from, to time.Time) (map[string]models.MaterialPresence, error)
	HomeworkCountsForRange(ctx context.Context, from, to time.Time) (map[string]int, error)
}

type paymentLedger interface {
	PaidForRange(ctx context.Context, from, to time.Time) (map[string]bool, error)
}

// MonthResult bundles the assembled month with the warnings collected while
// resolving it. This is also the shape cached in Redis.
type MonthResult struct {
	Calendar *models.CalendarMonth    `json:"calendar"`
	Warnings []models.ResolverWarning `json:"warnings,omitempty"`
}

// CalendarService resolves the monthly calendar view: weekly recurrence
// expansion, exception overlay, timezone conversion, payment due dates and
// the material/payment decorations, all behind an epoch-versioned cache.
type CalendarService struct {
	classes      classCatalog
	exceptions   exceptionSource
	materials    materialSource
	payments     paymentLedger
	cache        *CacheService
	invalidation *InvalidationRegistry
	metrics      *MetricsService
	assembler    schedule.Assembler
	defaultTZ    string
	logger       *zap.Logger
}

// NewCalendarService constructs the service. clock may be nil for real time.
func NewCalendarService(
	classes classCatalog,
	exceptions exceptionSource,
	materials materialSource,
	payments paymentLedger,
	cache *CacheService,
	invalidation *InvalidationRegistry,
	metrics *MetricsService,
	clock schedule.Clock,
	defaultTZ string,
	logger *zap.Logger,
) *CalendarService {
	if invalidation == nil {
		invalidation = NewInvalidationRegistry()
	}
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		classes:      classes,
		exceptions:   exceptions,
		materials:    materials,
		payments:     payments,
		cache:        cache,
		invalidation: invalidation,
		metrics:      metrics,
		assembler:    schedule.NewAssembler(clock),
		defaultTZ:    defaultTZ,
		logger:       logger,
	}
}

// Invalidation exposes the registry so mutating services can bump the epoch.
func (s *CalendarService) Invalidation() *InvalidationRegistry {
	return s.invalidation
}

// Month resolves the calendar for one month in the viewer's timezone. Results
// are cached per viewer scope, month, timezone and cache epoch, so any
// mutation to class data instantly orphans stale entries.
func (s *CalendarService) Month(ctx context.Context, viewer models.Viewer, year, month int, timezone string) (*MonthResult, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.ErrInvalidMonth
	}
	if year < 1970 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}
	if timezone == "" {
		timezone = s.defaultTZ
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown timezone %q", timezone))
	}

	key := s.cacheKey(viewer, year, month, timezone)
	var cached MonthResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.Calendar != nil {
		return &cached, nil
	}

	start := time.Now()
	result, err := s.resolve(ctx, viewer, year, month, timezone)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveResolve(viewer.CacheScope(), time.Since(start), len(result.Warnings))

	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		s.logger.Debug("month cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// Warmup pre-resolves the current and next month for the global scope so the
// first request after a deploy or invalidation does not pay the full
// resolution cost. Intended to run from the cron scheduler.
func (s *CalendarService) Warmup(ctx context.Context, timezone string) error {
	if timezone == "" {
		timezone = s.defaultTZ
	}
	admin := models.Viewer{Role: models.RoleAdmin}
	now := time.Now()
	for i := 0; i < 2; i++ {
		target := now.AddDate(0, i, 0)
		if _, err := s.Month(ctx, admin, target.Year(), int(target.Month()), timezone); err != nil {
			return fmt.Errorf("warm up %04d-%02d: %w", target.Year(), int(target.Month()), err)
		}
	}
	return nil
}

func (s *CalendarService) cacheKey(viewer models.Viewer, year, month int, timezone string) string {
	return fmt.Sprintf("calendar:%s:%04d-%02d:%s:v%d", viewer.CacheScope(), year, month, timezone, s.invalidation.Epoch())
}

func (s *CalendarService) resolve(ctx context.Context, viewer models.Viewer, year, month int, timezone string) (*MonthResult, error) {
	classes, err := s.classes.ListVisible(ctx, viewer)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	classIDs := make([]string, len(classes))
	for i, class := range classes {
		classIDs[i] = class.ID
	}

	exceptionsByClass := map[string][]models.ClassException{}
	if len(classIDs) > 0 {
		exceptionsByClass, err = s.exceptions.ListForRange(ctx, classIDs, monthStart, monthEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptions")
		}
	}

	calendar, warnings := s.assembler.Assemble(schedule.AssembleInput{
		Classes:           classes,
		ExceptionsByClass: exceptionsByClass,
		Month:             time.Month(month),
		Year:              year,
		ViewerTimezone:    timezone,
	})

	for _, warn := range warnings {
		s.logger.Warn("resolver warning",
			zap.String("class_id", warn.ClassID),
			zap.String("date", string(warn.Date)),
			zap.String("code", warn.Code),
			zap.String("message", warn.Message))
	}

	if err := s.decorate(ctx, calendar, monthStart, monthEnd); err != nil {
		// Decorations are auxiliary; the month itself is still correct.
		s.logger.Warn("failed to decorate month", zap.Int("year", year), zap.Int("month", month), zap.Error(err))
	}

	return &MonthResult{Calendar: calendar, Warnings: warnings}, nil
}

// decorate attaches material presence, homework counts and payment status.
// Keys join on class id and date, so entries for other classes or dates are
// simply ignored.
func (s *CalendarService) decorate(ctx context.Context, calendar *models.CalendarMonth, from, to time.Time) error {
	presence, err := s.materials.PresenceForRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("material presence: %w", err)
	}
	homework, err := s.materials.HomeworkCountsForRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("homework counts: %w", err)
	}
	paid, err := s.payments.PaidForRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("payment records: %w", err)
	}

	for i := range calendar.Occurrences {
		occ := &calendar.Occurrences[i]
		key := models.JoinKey(occ.ClassID, occ.Date)
		if p, ok := presence[key]; ok {
			occ.HasSlides = p.HasSlides
			occ.HasLinks = p.HasLinks
		}
		occ.HomeworkCount = homework[key]
	}
	for i := range calendar.PaymentDueDates {
		due := &calendar.PaymentDueDates[i]
		due.Paid = paid[models.JoinKey(due.ClassID, due.Date)]
	}
	return nil
}
