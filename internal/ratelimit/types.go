package ratelimit

import (
	"context"
	"time"
)

// Policy bounds request frequency for one route. Keys are built per client,
// so the bound applies per-route-per-client.
type Policy struct {
	// MaxRequests is the number of successful requests allowed per window.
	MaxRequests int
	// Window is how long recorded requests count against the budget.
	Window time.Duration
	// PreserveRate extends the window while the budget stays exceeded
	// instead of letting it lapse.
	PreserveRate bool
	// Message overrides the default throttle response body.
	Message string
}

// Limiter tracks per-key request counters.
type Limiter interface {
	// Timeout returns how long the key remains throttled; zero means the
	// key is not throttled.
	Timeout(ctx context.Context, key string, policy Policy, now time.Time) (time.Duration, error)
	// Record counts one successful request against the key. Failed
	// requests are never recorded.
	Record(ctx context.Context, key string, policy Policy, now time.Time) error
}

// Key builds a limiter key from a route path and a client address.
func Key(routePath, remoteAddr string) string {
	return routePath + remoteAddr
}
