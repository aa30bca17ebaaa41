package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

type stubCacheRepo struct {
	store    map[string][]byte
	patterns []string
	getErr   error
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var got string
	hit, err := svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	hit, err = svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", got)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, repo.store)
	assert.False(t, NewCacheService(nil, nil, 0, nil, true).Enabled())
}

func TestCacheServiceGetErrorSurfaces(t *testing.T) {
	repo := &stubCacheRepo{getErr: errors.New("redis down")}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	var got string
	hit, err := svc.Get(context.Background(), "k", &got)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestReportCardCacheKeys(t *testing.T) {
	assert.Equal(t, "report-cards:school-1:list:all:term-1", reportCardListKey("school-1", "", "term-1"))
	assert.True(t, strings.HasPrefix(reportCardListKey("school-1", "c", "t"), strings.TrimSuffix(reportCardSchoolPattern("school-1"), "*")))
}
