package ratelimit

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mwdev22/webpanel/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisBreakerDuration = 30 * time.Second

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager selects a limiter backend and enforces per-key rate policies. The
// in-memory backend always exists; Redis is used when configured and
// reachable, with a breaker that falls back to memory on faults.
type Manager struct {
	cfg            config.RateLimitConfig
	nowFn          func() time.Time
	memoryLimiter  Limiter
	newRedisClient RedisClientFactory

	mu           sync.Mutex
	redisLimiter *RedisLimiter
	breakerUntil time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(cfg config.RateLimitConfig, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		cfg:            cfg,
		nowFn:          nowFn,
		memoryLimiter:  NewMemoryLimiter(),
		newRedisClient: newRedisClient,
	}
}

// CheckTimeout returns the whole seconds a key remains throttled, or zero
// when the request may proceed. Callers reject throttled requests with 429.
func (m *Manager) CheckTimeout(ctx context.Context, key string, policy Policy) int {
	if m == nil || policy.MaxRequests <= 0 || key == "" {
		return 0
	}
	now := m.nowFn()
	remaining, errTimeout := m.backend(ctx, now).Timeout(ctx, key, policy, now)
	if errTimeout != nil {
		m.tripBreaker(errTimeout, now)
		remaining, _ = m.memoryLimiter.Timeout(ctx, key, policy, now)
	}
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// CheckRate records one successful request against a key. Only successful
// executions count against the budget.
func (m *Manager) CheckRate(ctx context.Context, key string, policy Policy) {
	if m == nil || policy.MaxRequests <= 0 || key == "" {
		return
	}
	now := m.nowFn()
	if errRecord := m.backend(ctx, now).Record(ctx, key, policy, now); errRecord != nil {
		m.tripBreaker(errRecord, now)
		_ = m.memoryLimiter.Record(ctx, key, policy, now)
	}
}

// backend returns the limiter to use for this call.
func (m *Manager) backend(ctx context.Context, now time.Time) Limiter {
	if !m.cfg.RedisEnabled || m.isBreakerActive(now) {
		return m.memoryLimiter
	}
	limiter, errEnsure := m.ensureRedis(ctx)
	if errEnsure != nil {
		m.tripBreaker(errEnsure, now)
		return m.memoryLimiter
	}
	return limiter
}

func (m *Manager) isBreakerActive(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if now.Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *Manager) tripBreaker(err error, now time.Time) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	log.WithError(err).Warn("rate limit: redis unavailable, falling back to memory")
}

func (m *Manager) ensureRedis(ctx context.Context) (*RedisLimiter, error) {
	addr := strings.TrimSpace(m.cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redisLimiter != nil {
		return m.redisLimiter, nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(m.cfg.RedisPassword),
		DB:       m.cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redisLimiter = NewRedisLimiter(client, strings.TrimSpace(m.cfg.RedisPrefix))
	return m.redisLimiter, nil
}
