package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

const analyticsCachePattern = "analytics:*"

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	CountByPost(ctx context.Context) (map[string]int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// AnalyticsService provides read-optimised access to application counts with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Applications returns counts by post, status and category. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Applications(ctx context.Context, actor models.Principal) (*models.ApplicationAnalytics, bool, error) {
	if !actor.IsStaff() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	cacheKey := makeAnalyticsCacheKey("applications")
	var cached models.ApplicationAnalytics
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
		s.logger.Warn("analytics cache read failed", zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	byPost, err := s.repo.CountByPost(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count by post")
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count by status")
	}
	byCategory, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count by category")
	}
	for _, status := range models.AllStatuses {
		if _, ok := byStatus[string(status)]; !ok {
			byStatus[string(status)] = 0
		}
	}

	result := &models.ApplicationAnalytics{
		ByPost:      byPost,
		ByStatus:    byStatus,
		ByCategory:  byCategory,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
		s.logger.Warn("cache analytics", zap.Error(err))
	}
	return result, false, nil
}

// Invalidate drops cached analytics after writes.
func (s *AnalyticsService) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, analyticsCachePattern); err != nil {
		return fmt.Errorf("invalidate analytics cache: %w", err)
	}
	return nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics(actor models.Principal) (*models.AnalyticsSystemMetrics, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	snapshot := s.metrics.Snapshot()
	return &snapshot, nil
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
