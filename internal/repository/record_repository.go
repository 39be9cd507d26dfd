package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// RecordRepository persists the immutable sub-records of an application.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateEducation inserts education rows in order.
func (r *RecordRepository) CreateEducation(ctx context.Context, records []models.EducationRecord) error {
	const query = `INSERT INTO education_records (id, application_id, degree_level, discipline, institute, year, marks, created_at)
	VALUES (:id, :application_id, :degree_level, :discipline, :institute, :year, :marks, :created_at)`
	now := time.Now().UTC()
	q := conn(ctx, r.db)
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt = now
		if _, err := q.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("create education record: %w", err)
		}
	}
	return nil
}

// CreateEmployment inserts employment rows in order.
func (r *RecordRepository) CreateEmployment(ctx context.Context, records []models.EmploymentRecord) error {
	const query = `INSERT INTO employment_records (id, application_id, organization, designation, date_from, date_to, created_at)
	VALUES (:id, :application_id, :organization, :designation, :date_from, :date_to, :created_at)`
	now := time.Now().UTC()
	q := conn(ctx, r.db)
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt = now
		if _, err := q.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("create employment record: %w", err)
		}
	}
	return nil
}

// CreateDocument appends one document reference.
func (r *RecordRepository) CreateDocument(ctx context.Context, doc *models.DocumentRef) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_refs (id, application_id, doc_type, storage_ref, original_name, size_bytes, uploaded_at)
	VALUES (:id, :application_id, :doc_type, :storage_ref, :original_name, :size_bytes, :uploaded_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document ref: %w", err)
	}
	return nil
}

// ListEducation returns the education rows of an application.
func (r *RecordRepository) ListEducation(ctx context.Context, applicationID string) ([]models.EducationRecord, error) {
	const query = `SELECT id, application_id, degree_level, discipline, institute, year, marks, created_at
	FROM education_records WHERE application_id = $1 ORDER BY created_at, id`
	var rows []models.EducationRecord
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, applicationID); err != nil {
		return nil, fmt.Errorf("list education records: %w", err)
	}
	return rows, nil
}

// ListEmployment returns the employment rows of an application.
func (r *RecordRepository) ListEmployment(ctx context.Context, applicationID string) ([]models.EmploymentRecord, error) {
	const query = `SELECT id, application_id, organization, designation, date_from, date_to, created_at
	FROM employment_records WHERE application_id = $1 ORDER BY date_from NULLS LAST, id`
	var rows []models.EmploymentRecord
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, applicationID); err != nil {
		return nil, fmt.Errorf("list employment records: %w", err)
	}
	return rows, nil
}

// ListDocuments returns the document references of an application.
func (r *RecordRepository) ListDocuments(ctx context.Context, applicationID string) ([]models.DocumentRef, error) {
	const query = `SELECT id, application_id, doc_type, storage_ref, original_name, size_bytes, uploaded_at
	FROM document_refs WHERE application_id = $1 ORDER BY uploaded_at, id`
	var rows []models.DocumentRef
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, applicationID); err != nil {
		return nil, fmt.Errorf("list document refs: %w", err)
	}
	return rows, nil
}

// GetDocument returns one document reference.
func (r *RecordRepository) GetDocument(ctx context.Context, id string) (*models.DocumentRef, error) {
	const query = `SELECT id, application_id, doc_type, storage_ref, original_name, size_bytes, uploaded_at
	FROM document_refs WHERE id = $1`
	var doc models.DocumentRef
	if err := conn(ctx, r.db).GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}
