package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorcal/tutorcal-api/internal/models"
	"github.com/tutorcal/tutorcal-api/internal/schedule"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
)

type paymentRepository interface {
	GetConfig(ctx context.Context, classID string) (*models.PaymentConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.PaymentConfig) error
	DeleteConfig(ctx context.Context, classID string) error
	PaidForRange(ctx context.Context, from, to time.Time) (map[string]bool, error)
}

// PaymentService manages billing configuration and computes per-month due
// dates with settlement status.
type PaymentService struct {
	repo         paymentRepository
	classes      classFinder
	links        PaymentLinkProvider
	invalidation *InvalidationRegistry
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPaymentService constructs the service. links may be nil when no payment
// gateway is configured; stored links are then served as-is.
func NewPaymentService(repo paymentRepository, classes classFinder, links PaymentLinkProvider, invalidation *InvalidationRegistry, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if invalidation == nil {
		invalidation = NewInvalidationRegistry()
	}
	return &PaymentService{repo: repo, classes: classes, links: links, invalidation: invalidation, validator: validate, logger: logger}
}

// PaymentConfigRequest describes upsert payloads.
type PaymentConfigRequest struct {
	Type           string  `json:"type" validate:"required,oneof=weekly monthly"`
	WeeklyInterval *int    `json:"weekly_interval" validate:"omitempty,min=1,max=52"`
	MonthlyOption  *string `json:"monthly_option" validate:"omitempty,oneof=first fifteen last"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	PaymentLink    *string `json:"payment_link" validate:"omitempty,url"`
}

func (s *PaymentService) findClass(ctx context.Context, classID string) (*models.ClassDefinition, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	return class, nil
}

// GetConfig returns the billing rule for a class.
func (s *PaymentService) GetConfig(ctx context.Context, classID string) (*models.PaymentConfig, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	cfg, err := s.repo.GetConfig(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class has no payment config")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment config")
	}
	return cfg, nil
}

// SetConfig validates and stores the billing rule for a class.
func (s *PaymentService) SetConfig(ctx context.Context, classID string, req PaymentConfigRequest) (*models.PaymentConfig, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment config payload")
	}

	cfg := &models.PaymentConfig{
		ClassID:        classID,
		Type:           models.PaymentType(req.Type),
		WeeklyInterval: req.WeeklyInterval,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaymentLink:    req.PaymentLink,
		UpdatedAt:      time.Now().UTC(),
	}
	if req.MonthlyOption != nil {
		opt := models.MonthlyOption(*req.MonthlyOption)
		cfg.MonthlyOption = &opt
	}

	switch cfg.Type {
	case models.PaymentWeekly:
		if cfg.WeeklyInterval == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "weekly payment configs require weekly_interval")
		}
		cfg.MonthlyOption = nil
	case models.PaymentMonthly:
		if cfg.MonthlyOption == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "monthly payment configs require monthly_option")
		}
		cfg.WeeklyInterval = nil
	}

	if err := s.repo.UpsertConfig(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payment config")
	}
	s.invalidation.Invalidate(classID)
	s.logger.Info("payment config updated", zap.String("class_id", classID), zap.String("type", string(cfg.Type)))
	return cfg, nil
}

// DeleteConfig removes the billing rule; the class stops producing due dates.
func (s *PaymentService) DeleteConfig(ctx context.Context, classID string) error {
	if err := s.repo.DeleteConfig(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class has no payment config")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment config")
	}
	s.invalidation.Invalidate(classID)
	return nil
}

// DueDates lists the due dates for one class in one month, marked paid where
// a settlement record exists. When a gateway provider is configured and the
// class has no stored link, a checkout link is generated for unpaid dues.
func (s *PaymentService) DueDates(ctx context.Context, classID string, year, month int) ([]models.PaymentDueDate, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.ErrInvalidMonth
	}
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.repo.GetConfig(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class has no payment config")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment config")
	}

	dates, err := schedule.DueDates(*cfg, class.StartDate, class.EndDate, time.Month(month), year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment config")
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	paid, err := s.repo.PaidForRange(ctx, monthStart, monthStart.AddDate(0, 1, -1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment records")
	}

	dues := make([]models.PaymentDueDate, 0, len(dates))
	for _, date := range dates {
		due := models.PaymentDueDate{
			Date:     date,
			ClassID:  classID,
			Amount:   cfg.Amount,
			Currency: cfg.Currency,
			Paid:     paid[models.JoinKey(classID, date)],
		}
		if cfg.PaymentLink != nil {
			due.PaymentLink = *cfg.PaymentLink
		} else if s.links != nil && !due.Paid {
			link, err := s.links.LinkFor(*class, *cfg, date)
			if err != nil {
				s.logger.Warn("payment link generation failed",
					zap.String("class_id", classID),
					zap.String("due_date", string(date)),
					zap.Error(err))
			} else {
				due.PaymentLink = link
			}
		}
		dues = append(dues, due)
	}
	return dues, nil
}
