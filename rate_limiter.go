// rate_limiter.go
// ----------------
// This file defines the RateLimiter type, which stores rate limit information announced by
// the server for each origin (auth host, API host). It reads the x-ratelimit-* and
// retry-after headers of every response and tells the RequestExecutor whether the next
// request may go out immediately or has to wait for the announced reset.
//
// Responsibilities:
// - Storing rate limit info keyed by origin host.
// - Checking if requests can proceed based on RemainingRequests and ResetRequestsAt.
// - Calculating delay durations before the next allowed request if the limit is exhausted.
package tiktokbridge

import (
	"strconv"
	"sync"
	"time"

	"github.com/opengovern/tiktok-bridge/internal"
)

// RateLimitInfo is the server-announced budget for one origin.
type RateLimitInfo struct {
	MaxRequests       *int
	RemainingRequests *int
	ResetRequestsAt   *int64 // UNIX ms
}

type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*RateLimitInfo
	now    func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*RateLimitInfo),
		now:    time.Now,
	}
}

// ParseRateLimitInfo extracts rate limit headers from a normalized response.
// It returns nil when the response carries none.
func ParseRateLimitInfo(headers map[string]string, now time.Time) *RateLimitInfo {
	parseInt := func(key string) *int {
		if val, ok := headers[key]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				return &i
			}
		}
		return nil
	}

	info := &RateLimitInfo{
		MaxRequests:       parseInt("x-ratelimit-limit"),
		RemainingRequests: parseInt("x-ratelimit-remaining"),
	}
	if ms, ok := internal.ParseResetMs(headers["x-ratelimit-reset"], now); ok {
		info.ResetRequestsAt = &ms
	}

	// retry-after wins when it points further into the future.
	if ms, ok := internal.ParseRetryAfterMs(headers["retry-after"], now); ok {
		if info.ResetRequestsAt == nil || ms > *info.ResetRequestsAt {
			info.ResetRequestsAt = &ms
		}
		if info.RemainingRequests == nil {
			zero := 0
			info.RemainingRequests = &zero
		}
	}

	if info.MaxRequests == nil && info.RemainingRequests == nil && info.ResetRequestsAt == nil {
		return nil
	}
	return info
}

// UpdateRateLimits stores the latest info for host. A nil info leaves the previous state.
func (r *RateLimiter) UpdateRateLimits(host string, info *RateLimitInfo) {
	if info == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits[host] = info
}

// canProceed returns false if the budget is spent and the reset time hasn't passed yet.
func (r *RateLimiter) canProceed(host string) bool {
	return r.delayBeforeNextRequest(host) == 0
}

// delayBeforeNextRequest returns how long to wait before the next request to host, if at all.
func (r *RateLimiter) delayBeforeNextRequest(host string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.limits[host]
	if !ok || info == nil {
		return 0
	}

	if info.RemainingRequests != nil && *info.RemainingRequests <= 0 && info.ResetRequestsAt != nil {
		now := r.now()
		if internal.IsInFuture(*info.ResetRequestsAt, now) {
			return time.Duration(*info.ResetRequestsAt-now.UnixMilli()) * time.Millisecond
		}
	}
	return 0
}

// GetRateLimitInfo returns a copy of the info known for host, or nil.
func (r *RateLimiter) GetRateLimitInfo(host string) *RateLimitInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.limits[host]; ok && info != nil {
		copyInfo := *info
		return &copyInfo
	}
	return nil
}
