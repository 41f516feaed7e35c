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

type exceptionRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassException, error)
	FindByID(ctx context.Context, classID, id string) (*models.ClassException, error)
	CountForDate(ctx context.Context, classID string, originalDate time.Time) (int, error)
	Create(ctx context.Context, exc *models.ClassException) error
	Update(ctx context.Context, exc *models.ClassException) error
	Delete(ctx context.Context, classID, id string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassDefinition, error)
}

// ExceptionService manages per-occurrence overrides: cancellations and
// reschedules.
type ExceptionService struct {
	repo         exceptionRepository
	classes      classFinder
	invalidation *InvalidationRegistry
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewExceptionService constructs the service.
func NewExceptionService(repo exceptionRepository, classes classFinder, invalidation *InvalidationRegistry, validate *validator.Validate, logger *zap.Logger) *ExceptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if invalidation == nil {
		invalidation = NewInvalidationRegistry()
	}
	return &ExceptionService{repo: repo, classes: classes, invalidation: invalidation, validator: validate, logger: logger}
}

// ExceptionRequest describes create and update payloads.
type ExceptionRequest struct {
	Type              string     `json:"type" validate:"required,oneof=cancelled rescheduled"`
	OriginalDate      time.Time  `json:"original_date" validate:"required"`
	OriginalStartTime string     `json:"original_start_time" validate:"required"`
	OriginalEndTime   string     `json:"original_end_time" validate:"required"`
	NewDate           *time.Time `json:"new_date"`
	NewStartTime      *string    `json:"new_start_time"`
	NewEndTime        *string    `json:"new_end_time"`
	Timezone          string     `json:"timezone" validate:"required"`
	Reason            *string    `json:"reason"`
	CreatedBy         string     `json:"created_by" validate:"required,email"`
}

func (s *ExceptionService) findClass(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	return nil
}

// List returns all exceptions for a class.
func (s *ExceptionService) List(ctx context.Context, classID string) ([]models.ClassException, error) {
	if err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	exceptions, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exceptions")
	}
	return exceptions, nil
}

// Create validates and stores a new exception. At most one exception may
// exist per (class, original date).
func (s *ExceptionService) Create(ctx context.Context, classID string, req ExceptionRequest) (*models.ClassException, error) {
	if err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	exc, err := s.buildException(uuid.NewString(), classID, req)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountForDate(ctx, classID, exc.OriginalDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing exceptions")
	}
	if count > 0 {
		return nil, appErrors.ErrDuplicateException
	}

	if err := s.repo.Create(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exception")
	}
	s.invalidation.Invalidate(classID)
	s.logger.Info("exception created",
		zap.String("class_id", classID),
		zap.String("exception_id", exc.ID),
		zap.String("type", string(exc.Type)))
	return exc, nil
}

// Update replaces an existing exception.
func (s *ExceptionService) Update(ctx context.Context, classID, id string, req ExceptionRequest) (*models.ClassException, error) {
	existing, err := s.repo.FindByID(ctx, classID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exception not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch exception")
	}
	exc, err := s.buildException(existing.ID, classID, req)
	if err != nil {
		return nil, err
	}

	if !exc.OriginalDate.Equal(existing.OriginalDate) {
		count, err := s.repo.CountForDate(ctx, classID, exc.OriginalDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing exceptions")
		}
		if count > 0 {
			return nil, appErrors.ErrDuplicateException
		}
	}

	exc.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exception")
	}
	s.invalidation.Invalidate(classID)
	return exc, nil
}

// Delete removes an exception; the natural occurrence resurfaces.
func (s *ExceptionService) Delete(ctx context.Context, classID, id string) error {
	if err := s.repo.Delete(ctx, classID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exception not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exception")
	}
	s.invalidation.Invalidate(classID)
	return nil
}

func (s *ExceptionService) buildException(id, classID string, req ExceptionRequest) (*models.ClassException, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception payload")
	}
	if _, err := schedule.ParseTime(req.OriginalStartTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid original start time")
	}
	if _, err := schedule.ParseTime(req.OriginalEndTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid original end time")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown timezone %q", req.Timezone))
	}

	exc := &models.ClassException{
		ID:                id,
		ClassID:           classID,
		Type:              models.ExceptionType(req.Type),
		OriginalDate:      req.OriginalDate,
		OriginalStartTime: req.OriginalStartTime,
		OriginalEndTime:   req.OriginalEndTime,
		NewDate:           req.NewDate,
		NewStartTime:      req.NewStartTime,
		NewEndTime:        req.NewEndTime,
		Timezone:          req.Timezone,
		Reason:            req.Reason,
		CreatedBy:         req.CreatedBy,
		CreatedAt:         time.Now().UTC(),
	}

	if exc.Type == models.ExceptionRescheduled {
		if !exc.IsReschedulable() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rescheduled exceptions require new_date, new_start_time and new_end_time")
		}
		if _, err := schedule.ParseTime(*exc.NewStartTime); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid new start time")
		}
		if _, err := schedule.ParseTime(*exc.NewEndTime); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid new end time")
		}
	}
	return exc, nil
}
