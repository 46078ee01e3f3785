package nutrition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mp "mealplanner"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "mealplanner:calculator:"

// Cache stores calculator responses by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at addr.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedCalculator memoizes a calculator. Its answers depend only on their inputs,
// so keys are content hashes of the request. Cache failures fall through to the calculator.
type CachedCalculator struct {
	next  mp.Calculator
	cache Cache
	ttl   time.Duration
}

func NewCachedCalculator(next mp.Calculator, cache Cache, ttl time.Duration) *CachedCalculator {
	return &CachedCalculator{next: next, cache: cache, ttl: ttl}
}

func (c *CachedCalculator) DailyTarget(ctx context.Context, profile mp.Profile) (mp.MacroTarget, error) {
	var target mp.MacroTarget
	err := c.cached(ctx, "daily", profile, &target, func() (any, error) {
		return c.next.DailyTarget(ctx, profile)
	})
	return target, err
}

func (c *CachedCalculator) SlotTargets(ctx context.Context, daily mp.MacroTarget, slots []mp.Slot) ([]mp.SlotTarget, error) {
	var targets []mp.SlotTarget
	err := c.cached(ctx, "slots", slotTargetsRequest{Daily: daily, Slots: slots}, &targets, func() (any, error) {
		return c.next.SlotTargets(ctx, daily, slots)
	})
	return targets, err
}

// cached decodes a hit into out, or calls compute and stores its result.
func (c *CachedCalculator) cached(ctx context.Context, kind string, input, out any, compute func() (any, error)) error {
	key, err := cacheKey(kind, input)
	if err != nil {
		return err
	}

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		slog.Warn("NUTRITION: Cache read failed", "key", key, "error", err)
	} else if ok {
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		slog.Warn("NUTRITION: Discarding unreadable cache entry", "key", key)
	}

	v, err := compute()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode calculator result: %w", err)
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		slog.Warn("NUTRITION: Cache write failed", "key", key, "error", err)
	}
	return json.Unmarshal(data, out)
}

func cacheKey(kind string, input any) (string, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return keyPrefix + kind + ":" + hex.EncodeToString(sum[:]), nil
}
