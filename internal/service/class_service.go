package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorcal/tutorcal-api/internal/models"
	"github.com/tutorcal/tutorcal-api/internal/schedule"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDefinition, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDefinition, error)
	Create(ctx context.Context, class *models.ClassDefinition) error
	Update(ctx context.Context, class *models.ClassDefinition) error
	Delete(ctx context.Context, id string) error
}

// ClassService manages class definitions and their weekly schedule slots.
type ClassService struct {
	repo         classRepository
	invalidation *InvalidationRegistry
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, invalidation *InvalidationRegistry, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if invalidation == nil {
		invalidation = NewInvalidationRegistry()
	}
	return &ClassService{repo: repo, invalidation: invalidation, validator: validate, logger: logger}
}

// ScheduleSlotRequest is one weekly recurrence entry in a class payload.
type ScheduleSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Timezone  string `json:"timezone" validate:"required"`
}

// ClassRequest describes create and update payloads.
type ClassRequest struct {
	Name          string                `json:"name" validate:"required"`
	ScheduleType  string                `json:"schedule_type" validate:"required,oneof=single multiple"`
	Schedules     []ScheduleSlotRequest `json:"schedules" validate:"required,min=1,dive"`
	StartDate     time.Time             `json:"start_date" validate:"required"`
	EndDate       *time.Time            `json:"end_date"`
	StudentEmails []string              `json:"student_emails" validate:"dive,email"`
}

// ClassListRequest describes filters for listing classes.
type ClassListRequest struct {
	Search    string     `json:"search"`
	ActiveOn  *time.Time `json:"active_on"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// List returns classes matching the filter.
func (s *ClassService) List(ctx context.Context, req ClassListRequest) ([]models.ClassDefinition, *models.Pagination, error) {
	filter := models.ClassFilter{
		Search:    req.Search,
		ActiveOn:  req.ActiveOn,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return classes, pagination, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDefinition, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	return class, nil
}

// Create validates and stores a new class, then bumps the cache epoch.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.ClassDefinition, error) {
	class, err := s.buildClass(uuid.NewString(), req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidation.Invalidate(class.ID)
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("name", class.Name))
	return class, nil
}

// Update validates and replaces an existing class definition.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.ClassDefinition, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	class, err := s.buildClass(existing.ID, req)
	if err != nil {
		return nil, err
	}
	class.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidation.Invalidate(class.ID)
	s.logger.Info("class updated", zap.String("class_id", class.ID))
	return class, nil
}

// Delete removes a class and everything hanging off it.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidation.Invalidate(id)
	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}

// buildClass validates the payload and materialises a ClassDefinition.
func (s *ClassService) buildClass(id string, req ClassRequest) (*models.ClassDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	scheduleType := models.ScheduleType(req.ScheduleType)
	if scheduleType == models.ScheduleTypeSingle && len(req.Schedules) != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "single schedule classes must have exactly one slot")
	}

	seen := make(map[int]bool, len(req.Schedules))
	slots := make([]models.ScheduleSlot, 0, len(req.Schedules))
	for i, slot := range req.Schedules {
		if seen[slot.DayOfWeek] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate day of week %d", slot.DayOfWeek))
		}
		seen[slot.DayOfWeek] = true

		start, err := schedule.ParseTime(slot.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("schedules[%d]: invalid start time", i))
		}
		end, err := schedule.ParseTime(slot.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("schedules[%d]: invalid end time", i))
		}
		if end.MinuteOfDay() <= start.MinuteOfDay() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedules[%d]: end time must be after start time", i))
		}
		if _, err := time.LoadLocation(slot.Timezone); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("schedules[%d]: unknown timezone %q", i, slot.Timezone))
		}

		slots = append(slots, models.ScheduleSlot{
			ID:        uuid.NewString(),
			ClassID:   id,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Timezone:  slot.Timezone,
		})
	}

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	now := time.Now().UTC()
	return &models.ClassDefinition{
		ID:            id,
		Name:          req.Name,
		ScheduleType:  scheduleType,
		Schedules:     slots,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		StudentEmails: req.StudentEmails,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
