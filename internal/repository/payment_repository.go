package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

const paymentColumns = `id, application_id, applicable, utr, utr_date, amount, receipt_ref, verified, verified_at, verified_by, created_at`

// PaymentRepository persists payment claims.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the single claim of an application.
func (r *PaymentRepository) Create(ctx context.Context, claim *models.PaymentClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payment_claims (` + paymentColumns + `)
	VALUES (:id, :application_id, :applicable, :utr, :utr_date, :amount, :receipt_ref, :verified, :verified_at, :verified_by, :created_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, claim); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create payment claim: %w", err)
	}
	return nil
}

// GetByID returns one claim.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.PaymentClaim, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_claims WHERE id = $1`
	var claim models.PaymentClaim
	if err := conn(ctx, r.db).GetContext(ctx, &claim, query, id); err != nil {
		return nil, err
	}
	return &claim, nil
}

// GetByApplication returns the claim attached to an application.
func (r *PaymentRepository) GetByApplication(ctx context.Context, applicationID string) (*models.PaymentClaim, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_claims WHERE application_id = $1`
	var claim models.PaymentClaim
	if err := conn(ctx, r.db).GetContext(ctx, &claim, query, applicationID); err != nil {
		return nil, err
	}
	return &claim, nil
}

// UpdateVerification overwrites the verification decision and returns the updated claim.
// sql.ErrNoRows is returned when the claim does not exist.
func (r *PaymentRepository) UpdateVerification(ctx context.Context, id string, verified bool, verifiedAt time.Time, verifiedBy string) (*models.PaymentClaim, error) {
	query := `UPDATE payment_claims SET verified = $2, verified_at = $3, verified_by = $4 WHERE id = $1 RETURNING ` + paymentColumns
	var claim models.PaymentClaim
	if err := conn(ctx, r.db).GetContext(ctx, &claim, query, id, verified, verifiedAt, verifiedBy); err != nil {
		return nil, err
	}
	return &claim, nil
}
