package dto

import (
	"strings"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// ApplicationListQuery binds the staff listing and export filters.
type ApplicationListQuery struct {
	Status   string `form:"status"`
	PostCode string `form:"post_code"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
	Format   string `form:"format"`
}

// ToFilter converts the query into a repository filter.
func (q ApplicationListQuery) ToFilter() models.ApplicationFilter {
	return models.ApplicationFilter{
		Status:   models.ApplicationStatus(strings.TrimSpace(q.Status)),
		PostCode: strings.TrimSpace(q.PostCode),
		Limit:    q.Limit,
	}
}
