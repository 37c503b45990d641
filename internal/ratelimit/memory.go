package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter implements sliding-window counters in process memory. State
// is best-effort and lost on restart.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryEntry
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Timeout returns the remaining throttle duration for the key. With
// PreserveRate set, every check against a throttled key pushes the window
// out again, so excess attempts keep the key locked.
func (l *MemoryLimiter) Timeout(_ context.Context, key string, policy Policy, now time.Time) (time.Duration, error) {
	if policy.MaxRequests <= 0 || key == "" {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.counters[key]
	if entry == nil || !entry.expiresAt.After(now) {
		delete(l.counters, key)
		return 0, nil
	}
	if entry.count >= policy.MaxRequests {
		if policy.PreserveRate && policy.Window > 0 {
			entry.expiresAt = now.Add(policy.Window)
			return policy.Window, nil
		}
		return entry.expiresAt.Sub(now), nil
	}
	return 0, nil
}

// Record counts one successful request against the key.
func (l *MemoryLimiter) Record(_ context.Context, key string, policy Policy, now time.Time) error {
	if policy.MaxRequests <= 0 || key == "" || policy.Window <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.counters[key]
	if entry == nil || !entry.expiresAt.After(now) {
		l.counters[key] = &memoryEntry{count: 1, expiresAt: now.Add(policy.Window)}
		return nil
	}
	entry.count++
	return nil
}
