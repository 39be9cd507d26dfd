package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheRepository(client, "serc", nil), mr
}

func TestCacheRepositorySetGetWithTTL(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "analytics:applications", map[string]int{"SCI-01": 4}, time.Minute))
	assert.True(t, mr.Exists("serc:analytics:applications"))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "analytics:applications", &got))
	assert.Equal(t, 4, got["SCI-01"])

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "analytics:applications", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "analytics:applications", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "analytics:other", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "session:x", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "analytics:*"))
	assert.False(t, mr.Exists("serc:analytics:applications"))
	assert.False(t, mr.Exists("serc:analytics:other"))
	assert.True(t, mr.Exists("serc:session:x"))
}

func TestCacheRepositoryNilClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	var dest string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, repo.Ping(context.Background()))
}
