package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&memoryCacheRepo{values: make(map[string][]byte)}, metrics, time.Minute, nil, true)
	key := timetableCacheKey("abc")
	assert.Equal(t, "timetable:run:abc", key)

	var dest map[string]int
	hit, err := svc.Get(context.Background(), key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), key, map[string]int{"entries": 3}, 0))
	hit, err = svc.Get(context.Background(), key, &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, dest["entries"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(&memoryCacheRepo{values: make(map[string][]byte)}, nil, 0, nil, false)
	assert.False(t, svc.Enabled())

	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", 1, 0))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, 0, nil, true)

	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, svc.Set(context.Background(), "k", 1, 0))
}

func TestCacheServiceTimetableRoundTrip(t *testing.T) {
	svc := NewCacheService(&memoryCacheRepo{values: make(map[string][]byte)}, nil, time.Minute, nil, true)

	_, hit := svc.LoadTimetable(context.Background(), "abc")
	assert.False(t, hit)

	svc.StoreTimetable(context.Background(), "abc", &dto.TimetableResponse{Success: true, RunID: "run-1", Cached: true}, 0)
	svc.StoreTimetable(context.Background(), "nil", nil, 0)

	cached, hit := svc.LoadTimetable(context.Background(), "abc")
	require.True(t, hit)
	assert.True(t, cached.Cached)
	assert.True(t, cached.Success)
	assert.Equal(t, "run-1", cached.RunID)

	_, hit = svc.LoadTimetable(context.Background(), "nil")
	assert.False(t, hit)
}

func TestCacheServiceTimetableDegradesOnBackendError(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, 0, nil, true)
	cached, hit := svc.LoadTimetable(context.Background(), "abc")
	assert.False(t, hit)
	assert.Nil(t, cached)
}
