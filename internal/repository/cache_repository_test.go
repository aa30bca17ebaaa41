package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "sma", nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "report-cards:school-1:list:all:all", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "report-cards:school-1:list:all:all", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "report-cards:school-1:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "sma:report-cards:school-1:*", NewCacheRepository(nil, "sma", nil).key("report-cards:school-1:*"))
	assert.Equal(t, "report-cards:school-1:*", NewCacheRepository(nil, "", nil).key("report-cards:school-1:*"))
}

func TestCacheRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	repo := NewCacheRepository(client, "sma", nil)
	defer repo.Close() //nolint:errcheck
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "report-cards:school-1:list:all:all", &dest)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.Error(t, repo.Set(ctx, "report-cards:school-1:list:all:all", []string{"a"}, time.Minute))
	assert.Error(t, repo.DeleteByPattern(ctx, "report-cards:school-1:*"))
}
