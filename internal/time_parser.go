// internal/time_parser.go
// ------------------------
// This internal package provides helpers for turning rate-limit headers into timestamps.
// TikTok and its edge proxies announce resets either as a UNIX timestamp, a relative number
// of seconds, a Go-style duration ("1s", "6m0s") or an HTTP date in Retry-After.
//
// Functions:
// - ParseTimeStr: Convert strings like "1s", "6m0s" into milliseconds.
// - ParseResetMs: Convert a reset header value into an absolute UNIX time in ms.
// - ParseRetryAfterMs: Convert a Retry-After header into an absolute UNIX time in ms.
// - UnixToMs: Convert a UNIX timestamp in seconds to milliseconds.
// - IsInFuture: Check if a given timestamp (ms) is after now.
package internal

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Values below this are treated as relative seconds rather than UNIX timestamps.
const relativeResetCutoff = 1_000_000_000

// ParseTimeStr converts strings like "1s", "6m0s", "250ms" into ms. Unparseable input yields 0.
func ParseTimeStr(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d.Milliseconds()
}

// ParseResetMs interprets a reset header relative to now and returns an absolute time in ms.
// ok is false when the value is empty or unparseable.
func ParseResetMs(val string, now time.Time) (int64, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		if n < 0 {
			return 0, false
		}
		if n < relativeResetCutoff {
			return now.UnixMilli() + n*1000, true
		}
		return UnixToMs(n), true
	}
	if ms := ParseTimeStr(val); ms > 0 {
		return now.UnixMilli() + ms, true
	}
	return 0, false
}

// ParseRetryAfterMs handles both forms of Retry-After: delta-seconds and HTTP-date.
func ParseRetryAfterMs(val string, now time.Time) (int64, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	if sec, err := strconv.Atoi(val); err == nil {
		if sec < 0 {
			return 0, false
		}
		return now.UnixMilli() + int64(sec)*1000, true
	}
	if t, err := http.ParseTime(val); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

// UnixToMs converts a UNIX timestamp in seconds to milliseconds.
func UnixToMs(timestamp int64) int64 {
	return timestamp * 1000
}

// IsInFuture checks if a timestamp (in ms) is in the future relative to now.
func IsInFuture(ms int64, now time.Time) bool {
	return ms > now.UnixMilli()
}
