package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

const applicationColumns = `id, owner_id, profile_id, post_code, status, shortlist_tag, reviewer_notes, submitted_at, updated_at`

// ApplicationRepository persists applications and answers staff listing queries.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. A second active application for the same
// owner and post violates applications_owner_post_active_idx and yields ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	now := time.Now().UTC()
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO applications (` + applicationColumns + `)
	VALUES (:id, :owner_id, :profile_id, :post_code, :status, :shortlist_tag, :reviewer_notes, :submitted_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, app); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID returns one application.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	var app models.Application
	if err := conn(ctx, r.db).GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetForUpdate returns one application and locks its row until the surrounding transaction ends.
func (r *ApplicationRepository) GetForUpdate(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	var app models.Application
	if err := conn(ctx, r.db).GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateReview writes status, tag and notes together.
func (r *ApplicationRepository) UpdateReview(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET status = :status, shortlist_tag = :shortlist_tag, reviewer_notes = :reviewer_notes, updated_at = :updated_at WHERE id = :id`
	res, err := conn(ctx, r.db).NamedExecContext(ctx, query, app)
	if err != nil {
		return fmt.Errorf("update application review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasActive reports whether the owner already holds a non-rejected application for the post.
func (r *ApplicationRepository) HasActive(ctx context.Context, ownerID, postCode string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE owner_id = $1 AND post_code = $2 AND status <> $3)`
	var exists bool
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, ownerID, postCode, models.StatusRejected); err != nil {
		return false, fmt.Errorf("check active application: %w", err)
	}
	return exists, nil
}

// ListByOwner returns the owner's applications, newest first.
func (r *ApplicationRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE owner_id = $1 ORDER BY submitted_at DESC`
	var apps []models.Application
	if err := conn(ctx, r.db).SelectContext(ctx, &apps, query, ownerID); err != nil {
		return nil, fmt.Errorf("list applications by owner: %w", err)
	}
	return apps, nil
}

// ListSummaries returns applications joined with owner, profile and payment data, newest first.
func (r *ApplicationRepository) ListSummaries(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationSummary, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT a.id, a.owner_id, u.email AS owner_email, a.post_code, a.status, a.shortlist_tag, a.submitted_at,
       p.name, p.category, p.pwbd, p.photo_ref,
       pc.id AS payment_id, pc.utr, pc.amount, pc.verified AS payment_verified
	FROM applications a
	JOIN users u ON u.id = a.owner_id
	LEFT JOIN applicant_profiles p ON p.id = a.profile_id
	LEFT JOIN payment_claims pc ON pc.application_id = a.id`)

	where, args := applicationConditions(filter, "a.")
	builder.WriteString(where)
	builder.WriteString(" ORDER BY a.submitted_at DESC")
	if filter.Limit > 0 {
		builder.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	var rows []models.ApplicationSummary
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list application summaries: %w", err)
	}
	return rows, nil
}

// CountByStatus returns the number of applications per status across all posts.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM applications GROUP BY status`
	var counts []models.StatusCount
	if err := conn(ctx, r.db).SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	return counts, nil
}

// ListRecipients returns the bulk notification audience for the filter, oldest application first.
func (r *ApplicationRepository) ListRecipients(ctx context.Context, filter models.ApplicationFilter) ([]models.BulkRecipient, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT a.id AS application_id, a.post_code, a.status, u.email, p.name
	FROM applications a
	LEFT JOIN users u ON u.id = a.owner_id
	LEFT JOIN applicant_profiles p ON p.id = a.profile_id`)
	where, args := applicationConditions(filter, "a.")
	builder.WriteString(where)
	builder.WriteString(" ORDER BY a.submitted_at ASC, a.id ASC")

	var rows []models.BulkRecipient
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list bulk recipients: %w", err)
	}
	return rows, nil
}

func applicationConditions(filter models.ApplicationFilter, alias string) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("%sstatus = $%d", alias, len(args)))
	}
	if filter.PostCode != "" {
		args = append(args, filter.PostCode)
		conditions = append(conditions, fmt.Sprintf("%spost_code = $%d", alias, len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("%sowner_id = $%d", alias, len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
