package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper provides common caching operations for services
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// Default cache configurations
var (
	// Course documents, invalidated on every write
	CourseCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "course:",
	}

	// User profiles, used for teacher display names and /users/me
	UserCacheConfig = CacheConfig{
		TTL:    15 * time.Minute,
		Prefix: "user:",
	}
)

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		// Sanitize error to prevent log injection
		return fmt.Errorf("cache get error for key type: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Graceful degradation when cache not available
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	cacheKey := c.GetCacheKey(key)
	return c.client.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete removes the cached values and bumps their versions so that a fetch
// started before the delete cannot store its result afterwards
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for _, key := range keys {
		versionKey := c.versionKey(key)
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, c.GetCacheKey(key))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// versionTTL outlives any fetch; an expired version only costs one skipped fill
const versionTTL = time.Hour

var errVersionChanged = errors.New("cache version changed")

func (c *CacheHelper) versionKey(key string) string {
	return c.GetCacheKey("ver:" + key)
}

// version returns the current version of key, "" when it was never deleted
func (c *CacheHelper) version(ctx context.Context, key string) (string, error) {
	if c.client == nil {
		return "", ErrCacheNotAvailable
	}
	v, err := c.client.Get(ctx, c.versionKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

// setIfVersion stores value only while key is still at version.
// It reports false when a concurrent Delete won.
func (c *CacheHelper) setIfVersion(ctx context.Context, key, version string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	versionKey := c.versionKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errVersionChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.GetCacheKey(key), data, ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, errVersionChanged) || errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return err == nil, err
}

// CacheOrExecute implements cache-aside pattern with proper error handling.
// The fetched value is stored only if no Delete of key ran during the fetch.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	// Try cache first
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil // Found in cache
	}

	if err != ErrCacheNotFound && err != ErrCacheNotAvailable {
		// Cache error occurred but continue with fetch
		slog.InfoContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", key)
	}

	version, versionErr := c.version(ctx, key)

	// Execute fetch function
	value, err := fetchFunc()
	if err != nil {
		return err
	}

	if versionErr == nil {
		stored, err := c.setIfVersion(ctx, key, version, value, ttl)
		if err != nil {
			slog.WarnContext(ctx, "Cache set error", "error", err, "key", key)
		} else if !stored {
			slog.DebugContext(ctx, "Cache fill skipped after concurrent invalidation", "key", key)
		}
	}

	// Set the result to destination directly without re-marshaling
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	return json.Unmarshal(data, dest)
}

// Cache errors
var (
	ErrCacheNotAvailable = fmt.Errorf("cache not available")
	ErrCacheNotFound     = fmt.Errorf("cache not found")
)

// CacheManager manages multiple cache helpers
type CacheManager struct {
	Course *CacheHelper
	User   *CacheHelper
}

// NewCacheManager creates cache manager with all cache helpers.
// A nil client yields helpers that never hit and never fail.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Course: NewCacheHelper(client, CourseCacheConfig.Prefix),
		User:   NewCacheHelper(client, UserCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Course.client == nil {
		return ErrCacheNotAvailable
	}

	_, err := cm.Course.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}

// Enabled reports whether a Redis client backs the helpers
func (cm *CacheManager) Enabled() bool {
	return cm.Course.client != nil
}
