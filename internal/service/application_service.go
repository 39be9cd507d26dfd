package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type applicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetForUpdate(ctx context.Context, id string) (*models.Application, error)
	UpdateReview(ctx context.Context, app *models.Application) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Application, error)
	ListSummaries(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationSummary, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

type applicationDetailReader interface {
	ListEducation(ctx context.Context, applicationID string) ([]models.EducationRecord, error)
	ListEmployment(ctx context.Context, applicationID string) ([]models.EmploymentRecord, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.DocumentRef, error)
}

type profileReader interface {
	FindByOwner(ctx context.Context, ownerID string) (*models.ApplicantProfile, error)
}

type paymentReader interface {
	GetByApplication(ctx context.Context, applicationID string) (*models.PaymentClaim, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// allowedTransitions lists the status edges a reviewer may apply. Self edges are always allowed.
var allowedTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusSubmitted:   {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview: {models.StatusShortlisted, models.StatusRejected},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to models.ApplicationStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplicationService implements the reviewer-facing application lifecycle.
type ApplicationService struct {
	tx        txRunner
	apps      applicationStore
	records   applicationDetailReader
	profiles  profileReader
	payments  paymentReader
	users     userReader
	notifier  notificationPublisher
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	listLimit int
	now       func() time.Time
}

// NewApplicationService wires the lifecycle service. listLimit caps dashboard rows.
func NewApplicationService(
	tx txRunner,
	apps applicationStore,
	records applicationDetailReader,
	profiles profileReader,
	payments paymentReader,
	users userReader,
	notifier notificationPublisher,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	listLimit int,
) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if listLimit <= 0 {
		listLimit = 500
	}
	return &ApplicationService{
		tx:        tx,
		apps:      apps,
		records:   records,
		profiles:  profiles,
		payments:  payments,
		users:     users,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		listLimit: listLimit,
		now:       time.Now,
	}
}

// Transition moves an application to a new status. The row is locked for the
// duration of the check and write so concurrent reviewers serialize.
func (s *ApplicationService) Transition(ctx context.Context, applicationID string, req models.TransitionRequest, actor models.Principal) (*models.Application, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only reviewers can change application status")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("unknown status %q", req.Status))
	}

	var (
		updated  *models.Application
		previous models.ApplicationStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, err := s.apps.GetForUpdate(ctx, applicationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "application not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
		}
		if !CanTransition(app.Status, req.Status) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move application from %s to %s", app.Status, req.Status))
		}
		previous = app.Status
		app.Status = req.Status
		app.ShortlistTag = trimmedOrNil(req.ShortlistTag)
		app.ReviewerNotes = trimmedOrNil(req.ReviewerNotes)
		app.UpdatedAt = s.now().UTC()
		if err := s.apps.UpdateReview(ctx, app); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "application not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
		}
		updated = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(updated.Status)
	s.logger.Info("application status changed",
		zap.String("application_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.ID),
	)
	s.invalidateAnalytics(ctx)
	s.notifyStatus(ctx, updated)
	return updated, nil
}

// Get returns the full application for its owner or for staff.
func (s *ApplicationService) Get(ctx context.Context, applicationID string, actor models.Principal) (*models.ApplicationDetail, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.OwnerID != actor.ID && !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another applicant")
	}

	detail := &models.ApplicationDetail{Application: *app}
	if profile, err := s.profiles.FindByOwner(ctx, app.OwnerID); err == nil {
		detail.Profile = profile
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if owner, err := s.users.FindByID(ctx, app.OwnerID); err == nil {
		detail.OwnerEmail = owner.Email
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load owner")
	}
	if detail.Education, err = s.records.ListEducation(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	if detail.Employment, err = s.records.ListEmployment(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employment")
	}
	if detail.Documents, err = s.records.ListDocuments(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	if payment, err := s.payments.GetByApplication(ctx, app.ID); err == nil {
		detail.Payment = payment
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return detail, nil
}

// ListMine returns the caller's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, actor models.Principal) ([]models.Application, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	apps, err := s.apps.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// Dashboard returns the newest applications matching filter plus counts per status.
func (s *ApplicationService) Dashboard(ctx context.Context, filter models.ApplicationFilter, actor models.Principal) (*models.Dashboard, error) {
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	filter.PostCode = normalizePostCode(filter.PostCode)
	if filter.Limit <= 0 || filter.Limit > s.listLimit {
		filter.Limit = s.listLimit
	}

	rows, err := s.apps.ListSummaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}

	dashboard := &models.Dashboard{Applications: rows, Counts: make(map[models.ApplicationStatus]int, len(models.AllStatuses))}
	for _, status := range models.AllStatuses {
		dashboard.Counts[status] = 0
	}
	for _, c := range counts {
		dashboard.Counts[c.Status] = c.Count
	}
	return dashboard, nil
}

func (s *ApplicationService) notifyStatus(ctx context.Context, app *models.Application) {
	if s.notifier == nil {
		return
	}
	owner, err := s.users.FindByID(ctx, app.OwnerID)
	if err != nil {
		s.logger.Warn("status notification skipped", zap.String("application_id", app.ID), zap.Error(err))
		return
	}
	s.notifier.Publish(ctx, Notification{
		Kind:    NotificationStatusChanged,
		To:      owner.Email,
		Subject: "CSIR-SERC - Application Status Updated",
		Body:    fmt.Sprintf("Your application #%s status is now: %s.", app.ID, app.Status),
	})
}

func (s *ApplicationService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsCachePattern); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
