package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// AnalyticsRepository exposes read-optimised grouped counts for the staff charts.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountByPost returns application counts per post code.
func (r *AnalyticsRepository) CountByPost(ctx context.Context) (map[string]int, error) {
	return r.grouped(ctx, "count applications by post", `SELECT post_code AS key, COUNT(*) AS count FROM applications GROUP BY post_code`)
}

// CountByStatus returns application counts per status.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.grouped(ctx, "count applications by status", `SELECT status AS key, COUNT(*) AS count FROM applications GROUP BY status`)
}

// CountByCategory returns profile counts per reservation category.
func (r *AnalyticsRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	return r.grouped(ctx, "count profiles by category", `SELECT NULLIF(category, '') AS key, COUNT(*) AS count FROM applicant_profiles GROUP BY NULLIF(category, '')`)
}

func (r *AnalyticsRepository) grouped(ctx context.Context, label, query string) (map[string]int, error) {
	var rows []models.GroupCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		key := "Unspecified"
		if row.Key != nil {
			key = *row.Key
		}
		out[key] += row.Count
	}
	return out, nil
}
