package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is a fixed window request budget.
type RateLimiter struct {
	mu            sync.Mutex
	requestsCount int64
	lastReset     time.Time
	window        time.Duration
	maxRequests   int64
}

// NewRateLimiter allows maxRequests per window; maxRequests <= 0 means unlimited.
func NewRateLimiter(maxRequests int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		lastReset:   time.Now(),
	}
}

// Check consumes one request from the budget and reports whether it was available.
func (rl *RateLimiter) Check() bool {
	if rl == nil || rl.maxRequests <= 0 {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastReset) >= rl.window {
		rl.requestsCount = 0
		rl.lastReset = now
	}

	if rl.requestsCount < rl.maxRequests {
		rl.requestsCount++
		return true
	}

	return false
}

func (rl *RateLimiter) GetStatus() Status {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.maxRequests - rl.requestsCount
	if remaining < 0 {
		remaining = 0
	}

	var percentUsed float64
	if rl.maxRequests > 0 {
		percentUsed = float64(rl.requestsCount) / float64(rl.maxRequests) * 100
	}

	return Status{
		Limit:       rl.maxRequests,
		Used:        rl.requestsCount,
		Remaining:   remaining,
		PercentUsed: percentUsed,
		ResetIn:     rl.window - now.Sub(rl.lastReset),
	}
}

// Status describes the current window.
type Status struct {
	Limit       int64
	Used        int64
	Remaining   int64
	PercentUsed float64
	ResetIn     time.Duration
}

// WithLimiter runs fn when the budget allows it.
func (rl *RateLimiter) WithLimiter(ctx context.Context, fn func() error) error {
	if rl.Check() {
		return fn()
	}

	return &RateLimitError{Status: rl.GetStatus()}
}

// RateLimitError is returned when the budget is exhausted.
type RateLimitError struct {
	Status Status
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d used, reset in %v",
		e.Status.Used, e.Status.Limit, e.Status.ResetIn.Round(time.Second))
}

// RetryWithBackoff calls fn up to maxRetries times, waiting attempt*baseDelay
// between attempts.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i == maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * baseDelay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
