// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/statusdesk/statusdesk/lib/clock"
)

// rateLimiter follows the quota GitHub reports in response headers and
// holds requests once the window is spent. Folding in every response
// keeps the picture current without dedicated /rate_limit calls.
type rateLimiter struct {
	mu        sync.Mutex
	observed  bool
	remaining int
	resetAt   time.Time
	clock     clock.Clock
}

func newRateLimiter(clk clock.Clock) *rateLimiter {
	return &rateLimiter{clock: clk}
}

// observe records one response's X-RateLimit-* headers. Responses
// without the pair (proxies, error pages) leave the state untouched.
func (limiter *rateLimiter) observe(header http.Header) {
	remaining, ok := headerInt(header, "X-RateLimit-Remaining")
	if !ok {
		return
	}
	resetUnix, ok := headerInt(header, "X-RateLimit-Reset")
	if !ok {
		return
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	limiter.observed = true
	limiter.remaining = int(remaining)
	limiter.resetAt = time.Unix(resetUnix, 0)
}

// block sleeps until the quota window resets when the last observed
// remaining count was zero. With quota left, nothing observed yet, or
// the reset already in the past, it returns immediately. Cancelling
// ctx abandons the wait.
func (limiter *rateLimiter) block(ctx context.Context) error {
	limiter.mu.Lock()
	exhausted := limiter.observed && limiter.remaining == 0
	resetAt := limiter.resetAt
	limiter.mu.Unlock()

	if !exhausted {
		return nil
	}
	wait := resetAt.Sub(limiter.clock.Now())
	if wait <= 0 {
		return nil
	}

	select {
	case <-limiter.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoff reads how long a rate-limited response asks us to hold off.
// Secondary (abuse) limits answer with Retry-After in seconds; primary
// limits only carry the reset timestamp. Zero means the response named
// no usable deadline.
func (limiter *rateLimiter) backoff(header http.Header) time.Duration {
	if seconds, ok := headerInt(header, "Retry-After"); ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if resetUnix, ok := headerInt(header, "X-RateLimit-Reset"); ok {
		if wait := time.Unix(resetUnix, 0).Sub(limiter.clock.Now()); wait > 0 {
			return wait
		}
	}
	return 0
}

// headerInt parses a single integer-valued header.
func headerInt(header http.Header, key string) (int64, bool) {
	value := header.Get(key)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
