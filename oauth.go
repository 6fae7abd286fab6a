package tiktokbridge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// DefaultUserFields is used by UserInfo when no field is given.
var DefaultUserFields = []string{"display_name", "avatar_url"}

type tokenRequest struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	Code         string `url:"code,omitempty"`
	GrantType    string `url:"grant_type"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
}

// FetchAccessToken exchanges the authorization code from the login callback for tokens.
func (sdk *TikTokBridge) FetchAccessToken(ctx context.Context, code string) (*TokenResponse, error) {
	if decoded, err := url.QueryUnescape(code); err == nil {
		code = decoded
	}
	return sdk.requestToken(ctx, tokenRequest{
		ClientKey:    sdk.cfg.ClientKey(),
		ClientSecret: sdk.cfg.ClientSecret(),
		Code:         code,
		GrantType:    "authorization_code",
		RedirectURI:  sdk.cfg.RedirectURI(),
	})
}

// RefreshAccessToken trades a refresh token for a new access token. The SDK never does this
// on its own; callers refresh when they see an expired token or use TokenSource.
func (sdk *TikTokBridge) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return sdk.requestToken(ctx, tokenRequest{
		ClientKey:    sdk.cfg.ClientKey(),
		ClientSecret: sdk.cfg.ClientSecret(),
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
}

func (sdk *TikTokBridge) requestToken(ctx context.Context, body tokenRequest) (*TokenResponse, error) {
	vals, err := query.Values(body)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}
	params := make(map[string]any, len(vals))
	for k := range vals {
		params[k] = vals.Get(k)
	}

	resp, err := sdk.Post(ctx, sdk.versioned("oauth/token/"), params, sdk.cfg.APIHost, nil)
	if err != nil {
		return nil, err
	}

	out := &TokenResponse{receivedAt: time.Now()}
	decodeInto(resp, &out.ResponseMeta, out)
	return out, nil
}

// UserInfo fetches the user behind accessToken. Available fields: open_id, union_id,
// avatar_url, avatar_url_100, avatar_large_url, display_name and the user.info.profile /
// user.info.stats fields when those scopes were granted.
func (sdk *TikTokBridge) UserInfo(ctx context.Context, accessToken string, fields ...string) (*UserInfoResponse, error) {
	if len(fields) == 0 {
		fields = DefaultUserFields
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = url.QueryEscape(f)
	}
	endpoint := sdk.versioned("user/info/") + "?fields=" + strings.Join(escaped, ",")
	headers := map[string]string{
		"Authorization": "Bearer " + sdk.bearer(accessToken),
	}

	resp, err := sdk.Get(ctx, endpoint, nil, sdk.cfg.APIHost, headers)
	if err != nil {
		return nil, err
	}

	out := &UserInfoResponse{}
	decodeInto(resp, &out.ResponseMeta, out)
	return out, nil
}
