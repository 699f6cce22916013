package ratelimit

import (
	"sync"
	"time"
)

// Config interface for rate limiting configuration
type Config interface {
	GetDisableRateLimit() bool
}

// Result contains the outcome of a cooldown check
type Result struct {
	ShouldBlock   bool
	RemainingTime time.Duration
	Reason        string
}

// RefreshLimiter enforces a per-tracking-number cooldown on force-refresh
// requests, so repeated cache-busting cannot hammer carrier sites.
type RefreshLimiter struct {
	mu          sync.Mutex
	lastRefresh map[string]time.Time
	cooldown    time.Duration
	now         func() time.Time
}

// NewRefreshLimiter creates a limiter with the given cooldown window
func NewRefreshLimiter(cooldown time.Duration) *RefreshLimiter {
	return &RefreshLimiter{
		lastRefresh: make(map[string]time.Time),
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Check decides whether a force refresh for the given key may proceed.
// An allowed refresh is recorded immediately, so two back-to-back force
// refreshes for the same number cannot both pass.
func (l *RefreshLimiter) Check(cfg Config, key string) Result {
	// Never rate limit if rate limiting is disabled
	if cfg.GetDisableRateLimit() {
		return Result{
			ShouldBlock: false,
			Reason:      "rate_limiting_disabled",
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	last, ok := l.lastRefresh[key]
	if !ok {
		l.lastRefresh[key] = now
		l.pruneLocked(now)
		return Result{
			ShouldBlock: false,
			Reason:      "no_previous_refresh",
		}
	}

	elapsed := now.Sub(last)
	if elapsed < l.cooldown {
		return Result{
			ShouldBlock:   true,
			RemainingTime: l.cooldown - elapsed,
			Reason:        "cooldown_active",
		}
	}

	l.lastRefresh[key] = now
	return Result{
		ShouldBlock: false,
		Reason:      "cooldown_passed",
	}
}

// Reset clears the recorded refresh for a key
func (l *RefreshLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastRefresh, key)
}

// Cooldown returns the configured cooldown window
func (l *RefreshLimiter) Cooldown() time.Duration {
	return l.cooldown
}

// pruneLocked drops entries already outside the cooldown window. Called
// with the mutex held, and only once the map has grown past a threshold.
func (l *RefreshLimiter) pruneLocked(now time.Time) {
	if len(l.lastRefresh) < 1024 {
		return
	}
	for key, last := range l.lastRefresh {
		if now.Sub(last) >= l.cooldown {
			delete(l.lastRefresh, key)
		}
	}
}
