package tiktokbridge

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is used by WaitForPublish when interval is not positive.
const DefaultPollInterval = 5 * time.Second

func (sdk *TikTokBridge) jsonHeaders(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + sdk.bearer(accessToken),
		"Content-Type":  ContentTypeJSON,
	}
}

func privacyOrDefault(level string) string {
	if level == "" {
		return PrivacySelfOnly
	}
	return level
}

// QueryCreatorInfo returns the creator's posting options. Call it before publishing to pick
// a privacy level the account allows.
func (sdk *TikTokBridge) QueryCreatorInfo(ctx context.Context, accessToken string) (*CreatorInfoResponse, error) {
	if sdk.creators != nil {
		return sdk.creators.lookup(ctx, sdk.bearer(accessToken), sdk.queryCreatorInfo)
	}
	return sdk.queryCreatorInfo(ctx, accessToken)
}

func (sdk *TikTokBridge) queryCreatorInfo(ctx context.Context, accessToken string) (*CreatorInfoResponse, error) {
	headers := sdk.jsonHeaders(accessToken)
	headers["Content-Type"] = ContentTypeJSON + "; charset=UTF-8"

	resp, err := sdk.Post(ctx, sdk.versioned("post/publish/creator_info/query/"), nil, sdk.cfg.APIHost, headers)
	if err != nil {
		return nil, err
	}

	out := &CreatorInfoResponse{}
	decodeInto(resp, &out.ResponseMeta, out)
	return out, nil
}

// PublishPhoto posts photos TikTok pulls from the given URLs. Only URL sources are supported.
func (sdk *TikTokBridge) PublishPhoto(ctx context.Context, accessToken string, post PhotoPost) (*PublishResponse, error) {
	if len(post.PhotoImages) == 0 {
		return nil, fmt.Errorf("publish photo: at least one photo image URL is required")
	}
	images := make([]any, len(post.PhotoImages))
	for i, u := range post.PhotoImages {
		images[i] = u
	}

	params := map[string]any{
		"post_info": map[string]any{
			"title":           post.Title,
			"description":     post.Description,
			"disable_comment": post.DisableComment,
			"privacy_level":   privacyOrDefault(post.PrivacyLevel),
			"auto_add_music":  post.AutoAddMusic,
		},
		"source_info": map[string]any{
			"source":            sourcePullFromURL,
			"photo_cover_index": post.PhotoCoverIndex,
			"photo_images":      images,
		},
		"post_mode":  postModeDirect,
		"media_type": mediaTypePhoto,
	}
	return sdk.publish(ctx, accessToken, "post/publish/content/init/", params)
}

// PublishVideo posts a video TikTok pulls from VideoURL. Only URL sources are supported.
func (sdk *TikTokBridge) PublishVideo(ctx context.Context, accessToken string, post VideoPost) (*PublishResponse, error) {
	if post.VideoURL == "" {
		return nil, fmt.Errorf("publish video: video URL is required")
	}

	params := map[string]any{
		"post_info": map[string]any{
			"title":                    post.Title,
			"privacy_level":            privacyOrDefault(post.PrivacyLevel),
			"disable_duet":             post.DisableDuet,
			"disable_comment":          post.DisableComment,
			"disable_stitch":           post.DisableStitch,
			"video_cover_timestamp_ms": post.VideoCoverTimestampMs,
		},
		"source_info": map[string]any{
			"source":    sourcePullFromURL,
			"video_url": post.VideoURL,
		},
	}
	return sdk.publish(ctx, accessToken, "post/publish/video/init/", params)
}

func (sdk *TikTokBridge) publish(ctx context.Context, accessToken, endpoint string, params map[string]any) (*PublishResponse, error) {
	resp, err := sdk.Post(ctx, sdk.versioned(endpoint), params, sdk.cfg.APIHost, sdk.jsonHeaders(accessToken))
	if err != nil {
		return nil, err
	}

	out := &PublishResponse{}
	decodeInto(resp, &out.ResponseMeta, out)
	return out, nil
}

// PostStatus fetches the processing status of a publish.
func (sdk *TikTokBridge) PostStatus(ctx context.Context, accessToken, publishID string) (*PublishStatusResponse, error) {
	params := map[string]any{
		"publish_id": publishID,
	}
	resp, err := sdk.Post(ctx, sdk.versioned("post/publish/status/fetch/"), params, sdk.cfg.APIHost, sdk.jsonHeaders(accessToken))
	if err != nil {
		return nil, err
	}

	out := &PublishStatusResponse{}
	decodeInto(resp, &out.ResponseMeta, out)
	return out, nil
}

// WaitForPublish polls PostStatus every interval while TikTok is still downloading or
// processing the media. It returns the first non-pending status, the first non-2xx or API
// error response, or ctx's error.
func (sdk *TikTokBridge) WaitForPublish(ctx context.Context, accessToken, publishID string, interval time.Duration) (*PublishStatusResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := sdk.PostStatus(ctx, accessToken, publishID)
		if err != nil {
			return nil, err
		}
		if !status.IsSuccessful() || !status.Error.OK() || !status.Data.Pending() {
			return status, nil
		}
		sdk.executor.debugf("Publish still processing", "publishID", publishID, "status", status.Data.Status)

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}
