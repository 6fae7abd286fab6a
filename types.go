package tiktokbridge

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// Privacy levels accepted by the publish endpoints.
const (
	PrivacyPublicToEveryone    = "PUBLIC_TO_EVERYONE"
	PrivacyMutualFollowFriends = "MUTUAL_FOLLOW_FRIENDS"
	PrivacyFollowerOfCreator   = "FOLLOWER_OF_CREATOR"
	PrivacySelfOnly            = "SELF_ONLY"
)

// Publish statuses returned by the status endpoint.
const (
	StatusProcessingUpload   = "PROCESSING_UPLOAD"
	StatusProcessingDownload = "PROCESSING_DOWNLOAD"
	StatusSendToUserInbox    = "SEND_TO_USER_INBOX"
	StatusPublishComplete    = "PUBLISH_COMPLETE"
	StatusFailed             = "FAILED"
)

const (
	sourcePullFromURL = "PULL_FROM_URL"
	postModeDirect    = "DIRECT_POST"
	mediaTypePhoto    = "PHOTO"
)

// ResponseMeta carries transport facts about the call that produced a result. Raw keeps the
// body as received; DecodeErr is set when it did not fit the typed result, which then holds
// whatever fields could be decoded.
type ResponseMeta struct {
	StatusCode int    `json:"-"`
	APIPath    string `json:"-"`
	Raw        []byte `json:"-"`
	DecodeErr  error  `json:"-"`
}

// IsSuccessful reports a 2xx status.
func (m ResponseMeta) IsSuccessful() bool {
	return m.StatusCode >= 200 && m.StatusCode < 300
}

// TokenResponse is the body of the oauth/token endpoint. On failure the token fields are
// empty and Error/ErrorDescription are set.
type TokenResponse struct {
	ResponseMeta

	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`

	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	LogID            string `json:"log_id,omitempty"`

	receivedAt time.Time
}

// OK reports whether the endpoint issued a token.
func (t *TokenResponse) OK() bool {
	return t.Error == "" && t.AccessToken != ""
}

// Token converts the response into an oauth2.Token. open_id, scope and the refresh token
// expiry are available through Token.Extra.
func (t *TokenResponse) Token() *oauth2.Token {
	received := t.receivedAt
	if received.IsZero() {
		received = time.Now()
	}
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = received.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	extra := map[string]any{
		"open_id": t.OpenID,
		"scope":   t.Scope,
	}
	if t.RefreshExpiresIn > 0 {
		extra["refresh_expiry"] = received.Add(time.Duration(t.RefreshExpiresIn) * time.Second)
	}
	return tok.WithExtra(extra)
}

// UserInfo holds the fields of user/info. Only requested fields are populated.
type UserInfo struct {
	OpenID          string `json:"open_id,omitempty"`
	UnionID         string `json:"union_id,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	AvatarURL100    string `json:"avatar_url_100,omitempty"`
	AvatarLargeURL  string `json:"avatar_large_url,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	BioDescription  string `json:"bio_description,omitempty"`
	ProfileDeepLink string `json:"profile_deep_link,omitempty"`
	IsVerified      bool   `json:"is_verified,omitempty"`
	FollowerCount   int64  `json:"follower_count,omitempty"`
	FollowingCount  int64  `json:"following_count,omitempty"`
	LikesCount      int64  `json:"likes_count,omitempty"`
	VideoCount      int64  `json:"video_count,omitempty"`
}

type UserInfoResponse struct {
	ResponseMeta
	Data struct {
		User UserInfo `json:"user"`
	} `json:"data"`
	Error APIError `json:"error"`
}

type CreatorInfo struct {
	CreatorAvatarURL        string   `json:"creator_avatar_url"`
	CreatorUsername         string   `json:"creator_username"`
	CreatorNickname         string   `json:"creator_nickname"`
	PrivacyLevelOptions     []string `json:"privacy_level_options"`
	CommentDisabled         bool     `json:"comment_disabled"`
	DuetDisabled            bool     `json:"duet_disabled"`
	StitchDisabled          bool     `json:"stitch_disabled"`
	MaxVideoPostDurationSec int      `json:"max_video_post_duration_sec"`
}

type CreatorInfoResponse struct {
	ResponseMeta
	Data  CreatorInfo `json:"data"`
	Error APIError    `json:"error"`
}

// PhotoPost describes a photo post pulled from publicly reachable URLs.
type PhotoPost struct {
	Title           string
	Description     string
	PhotoImages     []string
	PhotoCoverIndex int
	DisableComment  bool
	PrivacyLevel    string // defaults to SELF_ONLY
	AutoAddMusic    bool
}

// VideoPost describes a video post pulled from a publicly reachable URL.
type VideoPost struct {
	Title                 string
	VideoURL              string
	VideoCoverTimestampMs int64
	DisableComment        bool
	DisableDuet           bool
	DisableStitch         bool
	PrivacyLevel          string // defaults to SELF_ONLY
}

type PublishResponse struct {
	ResponseMeta
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url,omitempty"`
	} `json:"data"`
	Error APIError `json:"error"`
}

type PublishStatus struct {
	Status                   string  `json:"status"`
	FailReason               string  `json:"fail_reason,omitempty"`
	PubliclyAvailablePostIDs []json.Number `json:"publicaly_available_post_id,omitempty"` // numbers or numeric strings
	UploadedBytes            int64   `json:"uploaded_bytes,omitempty"`
	DownloadedBytes          int64   `json:"downloaded_bytes,omitempty"`
}

// Pending reports whether TikTok is still fetching or processing the media.
func (s PublishStatus) Pending() bool {
	return s.Status == StatusProcessingUpload || s.Status == StatusProcessingDownload
}

type PublishStatusResponse struct {
	ResponseMeta
	Data  PublishStatus `json:"data"`
	Error APIError      `json:"error"`
}
