package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements the limiter on a shared Redis instance so counters
// survive restarts and span replicas.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) redisKey(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

// Timeout returns the remaining throttle duration for the key. With
// PreserveRate set, every check against a throttled key pushes the window
// out again, so excess attempts keep the key locked.
func (l *RedisLimiter) Timeout(ctx context.Context, key string, policy Policy, _ time.Time) (time.Duration, error) {
	if policy.MaxRequests <= 0 || key == "" {
		return 0, nil
	}
	raw, errGet := l.client.Get(ctx, l.redisKey(key)).Result()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return 0, nil
		}
		return 0, errGet
	}
	count, errParse := strconv.Atoi(raw)
	if errParse != nil || count < policy.MaxRequests {
		return 0, nil
	}
	ttl, errTTL := l.client.PTTL(ctx, l.redisKey(key)).Result()
	if errTTL != nil {
		return 0, errTTL
	}
	if ttl <= 0 {
		return 0, nil
	}
	if policy.PreserveRate && policy.Window > 0 {
		if errExpire := l.client.PExpire(ctx, l.redisKey(key), policy.Window).Err(); errExpire != nil {
			return 0, errExpire
		}
		return policy.Window, nil
	}
	return ttl, nil
}

// Record counts one successful request against the key.
func (l *RedisLimiter) Record(ctx context.Context, key string, policy Policy, _ time.Time) error {
	if policy.MaxRequests <= 0 || key == "" || policy.Window <= 0 {
		return nil
	}
	count, errIncr := l.client.Incr(ctx, l.redisKey(key)).Result()
	if errIncr != nil {
		return errIncr
	}
	if count == 1 {
		if errExpire := l.client.PExpire(ctx, l.redisKey(key), policy.Window).Err(); errExpire != nil {
			return errExpire
		}
	}
	return nil
}
