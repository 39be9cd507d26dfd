package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type stubCacheRepo struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{store: map[string][]byte{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

type countingAnalyticsRepo struct {
	calls int
}

func (r *countingAnalyticsRepo) CountByPost(context.Context) (map[string]int, error) {
	r.calls++
	return map[string]int{"SCI-01": 3, "TO-01": 1}, nil
}

func (r *countingAnalyticsRepo) CountByStatus(context.Context) (map[string]int, error) {
	return map[string]int{"Submitted": 3, "Rejected": 1}, nil
}

func (r *countingAnalyticsRepo) CountByCategory(context.Context) (map[string]int, error) {
	return map[string]int{"GEN": 2, "OBC": 2}, nil
}

func TestApplicationsAnalyticsUsesCache(t *testing.T) {
	repo := &countingAnalyticsRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(newStubCacheRepo(), metrics, time.Minute, nil, true)
	svc := NewAnalyticsService(repo, cache, metrics, nil)
	reviewer := models.Principal{ID: "rev-1", Role: models.RoleReviewer}
	ctx := context.Background()

	first, cached, err := svc.Applications(ctx, reviewer)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, first.ByPost["SCI-01"])
	assert.Equal(t, 0, first.ByStatus["Shortlisted"])
	assert.Len(t, first.ByStatus, len(models.AllStatuses))

	second, cached, err := svc.Applications(ctx, reviewer)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.ByCategory, second.ByCategory)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, svc.Invalidate(ctx))
	_, cached, err = svc.Applications(ctx, reviewer)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, repo.calls)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
}

func TestAnalyticsWithoutCache(t *testing.T) {
	repo := &countingAnalyticsRepo{}
	svc := NewAnalyticsService(repo, nil, nil, nil)
	_, cached, err := svc.Applications(context.Background(), models.Principal{ID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, cached)
	require.NoError(t, svc.Invalidate(context.Background()))
}

func TestAnalyticsAccess(t *testing.T) {
	svc := NewAnalyticsService(&countingAnalyticsRepo{}, nil, NewMetricsService(), nil)

	_, _, err := svc.Applications(context.Background(), models.Principal{ID: "owner-1", Role: models.RoleApplicant})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.SystemMetrics(models.Principal{ID: "rev-1", Role: models.RoleReviewer})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	snapshot, err := svc.SystemMetrics(models.Principal{ID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Positive(t, snapshot.Goroutines)
}
