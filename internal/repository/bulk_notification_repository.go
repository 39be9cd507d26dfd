package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// BulkNotificationRepository stores the append-only bulk dispatch log.
type BulkNotificationRepository struct {
	db *sqlx.DB
}

// NewBulkNotificationRepository constructs the repository.
func NewBulkNotificationRepository(db *sqlx.DB) *BulkNotificationRepository {
	return &BulkNotificationRepository{db: db}
}

// Create appends one dispatch record.
func (r *BulkNotificationRepository) Create(ctx context.Context, record *models.BulkNotificationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bulk_notification_records (id, subject, body_preview, filter_status, filter_post_code, count_sent, sent_by, created_at)
	VALUES (:id, :subject, :body_preview, :filter_status, :filter_post_code, :count_sent, :sent_by, :created_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create bulk notification record: %w", err)
	}
	return nil
}

// ListRecent returns the latest dispatch records.
func (r *BulkNotificationRepository) ListRecent(ctx context.Context, limit int) ([]models.BulkNotificationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, subject, body_preview, filter_status, filter_post_code, count_sent, sent_by, created_at
	FROM bulk_notification_records ORDER BY created_at DESC LIMIT %d`, limit)
	var rows []models.BulkNotificationRecord
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list bulk notification records: %w", err)
	}
	return rows, nil
}
