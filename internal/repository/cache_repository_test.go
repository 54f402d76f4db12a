package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepositoryRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewCacheRepository(client, "course-service")
	ctx := context.Background()

	var out []string
	assert.ErrorIs(t, repo.Get(ctx, "categories:active", &out), ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "categories:active", []string{"go", "rust"}, time.Minute))
	assert.True(t, mr.Exists("course-service:categories:active"))
	assert.Equal(t, time.Minute, mr.TTL("course-service:categories:active"))

	require.NoError(t, repo.Get(ctx, "categories:active", &out))
	assert.Equal(t, []string{"go", "rust"}, out)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewCacheRepository(client, "svc")
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "categories:active", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "categories:all", 2, time.Minute))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, repo.DeleteByPattern(ctx, "categories:*"))
	assert.False(t, mr.Exists("svc:categories:active"))
	assert.False(t, mr.Exists("svc:categories:all"))
	assert.True(t, mr.Exists("other:key"))

	assert.NoError(t, repo.DeleteByPattern(ctx, "nothing:*"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "")
	var out int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}
