package internal

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeStr(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int64(1000), ParseTimeStr("1s"))
	assert.Equal(int64(360000), ParseTimeStr("6m0s"))
	assert.Equal(int64(250), ParseTimeStr("250ms"))
	assert.Equal(int64(0), ParseTimeStr(""))
	assert.Equal(int64(0), ParseTimeStr("soon"))
	assert.Equal(int64(0), ParseTimeStr("-1s"))
}

func TestParseResetMs(t *testing.T) {
	assert := assert.New(t)
	now := time.Unix(1_700_000_000, 0)

	ms, ok := ParseResetMs("30", now)
	assert.True(ok)
	assert.Equal(now.UnixMilli()+30_000, ms)

	ms, ok = ParseResetMs("1700000060", now)
	assert.True(ok)
	assert.Equal(int64(1_700_000_060_000), ms)

	ms, ok = ParseResetMs("1m30s", now)
	assert.True(ok)
	assert.Equal(now.UnixMilli()+90_000, ms)

	for _, bad := range []string{"", "  ", "-5", "later"} {
		_, ok = ParseResetMs(bad, now)
		assert.False(ok, bad)
	}
}

func TestParseRetryAfterMs(t *testing.T) {
	assert := assert.New(t)
	now := time.Unix(1_700_000_000, 0)

	ms, ok := ParseRetryAfterMs("120", now)
	assert.True(ok)
	assert.Equal(now.UnixMilli()+120_000, ms)

	date := now.Add(time.Hour).UTC().Format(http.TimeFormat)
	ms, ok = ParseRetryAfterMs(date, now)
	assert.True(ok)
	assert.Equal(now.Add(time.Hour).UnixMilli(), ms)

	_, ok = ParseRetryAfterMs("-1", now)
	assert.False(ok)
	_, ok = ParseRetryAfterMs("tomorrow", now)
	assert.False(ok)
}

func TestUnixToMsAndIsInFuture(t *testing.T) {
	assert.Equal(t, int64(5000), UnixToMs(5))
	now := time.Unix(1_700_000_000, 0)
	assert.True(t, IsInFuture(now.Add(time.Millisecond).UnixMilli(), now))
	assert.False(t, IsInFuture(now.UnixMilli(), now))
	assert.False(t, IsInFuture(now.Add(-time.Minute).UnixMilli(), now))
}
