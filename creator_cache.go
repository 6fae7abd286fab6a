package tiktokbridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// creatorInfoCache keeps successful creator info lookups per access token. Concurrent
// lookups for the same token share one request, which is not cancelled when the caller that
// started it gives up.
type creatorInfoCache struct {
	entries *expirable.LRU[string, *CreatorInfoResponse]
	group   singleflight.Group
}

type creatorInfoFetcher func(ctx context.Context, accessToken string) (*CreatorInfoResponse, error)

// EnableCreatorInfoCache makes QueryCreatorInfo reuse successful results for ttl. Capacity
// of zero means unlimited size. Call it before the bridge is shared between goroutines.
// Cached responses are shared and must not be modified.
func (sdk *TikTokBridge) EnableCreatorInfoCache(capacity int, ttl time.Duration) {
	sdk.creators = &creatorInfoCache{
		entries: expirable.NewLRU[string, *CreatorInfoResponse](capacity, nil, ttl),
	}
}

// InvalidateCreatorInfo drops the cached entry for accessToken, if any.
func (sdk *TikTokBridge) InvalidateCreatorInfo(accessToken string) {
	if sdk.creators == nil {
		return
	}
	sdk.creators.entries.Remove(tokenKey(sdk.bearer(accessToken)))
}

func (c *creatorInfoCache) lookup(ctx context.Context, accessToken string, fetch creatorInfoFetcher) (*CreatorInfoResponse, error) {
	key := tokenKey(accessToken)
	if info, ok := c.entries.Get(key); ok {
		creatorInfoCacheHits.Inc()
		return info, nil
	}
	creatorInfoCacheMisses.Inc()

	// The shared fetch outlives any single caller; each caller still stops waiting on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that just finished may have filled the entry
		if info, ok := c.entries.Get(key); ok {
			return info, nil
		}
		info, err := fetch(fetchCtx, accessToken)
		if err != nil {
			return nil, err
		}
		if info.IsSuccessful() && info.Error.OK() {
			c.entries.Add(key, info)
		}
		return info, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			creatorInfoCoalesced.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CreatorInfoResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// tokenKey avoids keeping raw access tokens as map keys.
func tokenKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}
