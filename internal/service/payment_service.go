package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type paymentStore interface {
	GetByID(ctx context.Context, id string) (*models.PaymentClaim, error)
	UpdateVerification(ctx context.Context, id string, verified bool, verifiedAt time.Time, verifiedBy string) (*models.PaymentClaim, error)
}

// PaymentService records staff decisions on self-attested fee payments.
type PaymentService struct {
	repo   paymentStore
	logger *zap.Logger
	now    func() time.Time
}

// NewPaymentService constructs the reconciler.
func NewPaymentService(repo paymentStore, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, logger: logger, now: time.Now}
}

// Verify sets the verification decision. The latest decision overwrites any earlier one.
func (s *PaymentService) Verify(ctx context.Context, paymentID string, verified bool, actor models.Principal) (*models.PaymentClaim, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only reviewers can verify payments")
	}
	by := actor.Email
	if by == "" {
		by = actor.ID
	}
	claim, err := s.repo.UpdateVerification(ctx, paymentID, verified, s.now().UTC(), by)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	s.logger.Info("payment verification recorded",
		zap.String("payment_id", claim.ID),
		zap.String("application_id", claim.ApplicationID),
		zap.Bool("verified", claim.Verified),
		zap.String("actor_id", actor.ID),
	)
	return claim, nil
}

// Get returns one payment claim for staff.
func (s *PaymentService) Get(ctx context.Context, paymentID string, actor models.Principal) (*models.PaymentClaim, error) {
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	claim, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return claim, nil
}
