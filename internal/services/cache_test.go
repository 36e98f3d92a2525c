package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T, ttl time.Duration) CacheServiceInterface {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewCacheService(nil, ttl, logger)
}

func TestCacheMemoryFallback(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t, time.Minute)

	_, err := cache.Get(ctx, "placa:ABC1234")
	assert.Error(t, err)

	require.NoError(t, cache.Set(ctx, "placa:ABC1234", `{"plate":"ABC1234"}`))

	value, err := cache.Get(ctx, "placa:ABC1234")
	require.NoError(t, err)
	assert.Equal(t, `{"plate":"ABC1234"}`, value)

	exists, err := cache.Exists(ctx, "placa:ABC1234")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "placa:ABC1234"))

	_, err = cache.Get(ctx, "placa:ABC1234")
	assert.Error(t, err)

	exists, err = cache.Exists(ctx, "placa:ABC1234")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t, 10*time.Millisecond)

	require.NoError(t, cache.Set(ctx, "placa:XYZ9876", "valor"))

	value, err := cache.Get(ctx, "placa:XYZ9876")
	require.NoError(t, err)
	assert.Equal(t, "valor", value)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.Get(ctx, "placa:XYZ9876")
	assert.Error(t, err)
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t, time.Minute)

	require.NoError(t, cache.Set(ctx, "placa:AAA0001", "um"))
	require.NoError(t, cache.Set(ctx, "placa:AAA0002", "dois"))

	require.NoError(t, cache.Clear(ctx))

	_, err := cache.Get(ctx, "placa:AAA0001")
	assert.Error(t, err)
	_, err = cache.Get(ctx, "placa:AAA0002")
	assert.Error(t, err)
}

func TestCacheStatsAndHealth(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache(t, time.Minute)

	require.NoError(t, cache.Set(ctx, "placa:AAA0001", "um"))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)

	memStats, ok := stats["memory"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, memStats["size"])

	health := cache.Health()
	redisHealth, ok := health["redis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "disabled", redisHealth["status"])
}
