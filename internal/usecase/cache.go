package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/detection"
	"github.com/example/ppe-scan/internal/logging"
	"github.com/example/ppe-scan/internal/storage"
)

// Cache abstracts the Redis operations used by the use case to make testing easier.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisCache is a concrete implementation backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set writes a value to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a cached value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// detectionCacheKey includes the ETag so an overwritten object is analysed again.
func detectionCacheKey(bucket string, obj storage.Object) string {
	key := "ppe:detection:" + bucket + ":" + obj.Key
	if etag := strings.Trim(obj.ETag, `"`); etag != "" {
		key += ":" + etag
	}
	return key
}

// loadDetection returns a cached result. Any cache failure is treated as a miss.
func (uc *ScanUseCase) loadDetection(ctx context.Context, requestID, key string) (*detection.Result, bool) {
	opLogger := logging.WithOperation(uc.logger, "cache.get.detection", requestID)

	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			opLogger.Debug("detection cache miss", zap.String("cache_key", key))
		} else {
			opLogger.Warn("failed to read detection cache", zap.String("cache_key", key), zap.Error(err))
		}
		return nil, false
	}

	var result detection.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		opLogger.Warn("failed to decode cached detection", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	opLogger.Debug("detection cache hit", zap.String("cache_key", key))
	return &result, true
}

func (uc *ScanUseCase) storeDetection(ctx context.Context, requestID, key string, result *detection.Result) {
	opLogger := logging.WithOperation(uc.logger, "cache.set.detection", requestID)

	serialized, err := json.Marshal(result)
	if err != nil {
		opLogger.Warn("failed to serialize detection", zap.Error(err))
		return
	}
	if err := uc.cache.Set(ctx, key, string(serialized), uc.cacheTTL); err != nil {
		opLogger.Warn("failed to cache detection", zap.String("cache_key", key), zap.Error(err))
	}
}
