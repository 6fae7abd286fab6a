// sdk.go
// ------
// The sdk.go file contains the core TikTokBridge struct and its methods.
// This is the main entry point of the SDK for users.
//
// Key functionalities include:
// - Initializing the SDK with NewTikTokBridge()
// - Building the login URL with AuthURL()
// - Making raw requests via Get() and Post()
// - Inspecting the last response (path, status, headers, body, attempts)
//
// The TikTokBridge relies on a RequestExecutor to handle retries and rate limits, so every
// endpoint method in oauth.go and publish.go behaves the same way on transport failures.
package tiktokbridge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultScopes is used by AuthURL when no scope is given.
var DefaultScopes = []string{"user.info.basic"}

type TikTokBridge struct {
	cfg      Config
	executor *RequestExecutor
	creators *creatorInfoCache // nil unless EnableCreatorInfoCache was called
}

// NewTikTokBridge validates cfg and snapshots it. Later changes to cfg are not observed.
func NewTikTokBridge(cfg *Config) (*TikTokBridge, error) {
	if cfg == nil {
		return nil, &UnsupportedConfigError{Field: "config", Reason: "config is required"}
	}
	if cfg.ClientKey() == "" {
		return nil, &UnsupportedConfigError{Field: "client key", Reason: "client key is required"}
	}

	sdk := &TikTokBridge{cfg: *cfg}
	if err := sdk.cfg.SetAPIVersion(sdk.cfg.APIVersion); err != nil {
		return nil, err
	}
	sdk.executor = NewRequestExecutor(&sdk.cfg, nil)
	return sdk, nil
}

// SetDebug enables or disables debug logging for the SDK.
func (sdk *TikTokBridge) SetDebug(enabled bool) {
	sdk.executor.SetDebug(enabled)
}

// SetHTTPClient replaces the HTTP transport used for every request.
func (sdk *TikTokBridge) SetHTTPClient(client HTTPDoer) {
	sdk.executor.SetHTTPClient(client)
}

// Executor gives access to the underlying request engine.
func (sdk *TikTokBridge) Executor() *RequestExecutor {
	return sdk.executor
}

// AuthURL returns the login URL and the CSRF state embedded in it. The caller must keep the
// state and compare it with the one TikTok sends back to the redirect URI.
func (sdk *TikTokBridge) AuthURL(scopes []string) (string, string, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	state, err := newCSRFState()
	if err != nil {
		return "", "", err
	}

	escaped := make([]string, len(scopes))
	for i, s := range scopes {
		escaped[i] = url.QueryEscape(s)
	}

	// scope stays comma separated and unescaped, the authorize page does not accept %2C.
	authURL := fmt.Sprintf("%s/v%s/auth/authorize/?client_key=%s&scope=%s&response_type=code&redirect_uri=%s&state=%s",
		strings.TrimRight(sdk.cfg.AuthHost, "/"),
		sdk.cfg.APIVersion,
		url.QueryEscape(sdk.cfg.ClientKey()),
		strings.Join(escaped, ","),
		url.QueryEscape(sdk.cfg.RedirectURI()),
		state,
	)
	return authURL, state, nil
}

func newCSRFState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Get issues a GET against baseURL (the API host when empty).
func (sdk *TikTokBridge) Get(ctx context.Context, endpoint string, params map[string]any, baseURL string, headers map[string]string) (*Response, error) {
	return sdk.do(ctx, http.MethodGet, endpoint, params, baseURL, headers)
}

// Post issues a POST against baseURL (the API host when empty).
func (sdk *TikTokBridge) Post(ctx context.Context, endpoint string, params map[string]any, baseURL string, headers map[string]string) (*Response, error) {
	return sdk.do(ctx, http.MethodPost, endpoint, params, baseURL, headers)
}

func (sdk *TikTokBridge) do(ctx context.Context, method, endpoint string, params map[string]any, baseURL string, headers map[string]string) (*Response, error) {
	if baseURL == "" {
		baseURL = sdk.cfg.APIHost
	}
	return sdk.executor.Execute(ctx, &Request{
		BaseURL: baseURL,
		Method:  method,
		Path:    endpoint,
		Params:  params,
		Headers: headers,
	})
}

func (sdk *TikTokBridge) versioned(endpoint string) string {
	return "v" + sdk.cfg.APIVersion + "/" + strings.TrimLeft(endpoint, "/")
}

// bearer picks the explicit token, then the configured bearer, then the access token.
func (sdk *TikTokBridge) bearer(accessToken string) string {
	switch {
	case accessToken != "":
		return accessToken
	case sdk.cfg.Bearer != "":
		return sdk.cfg.Bearer
	default:
		return sdk.cfg.AccessToken
	}
}

func (sdk *TikTokBridge) LastAPIPath() string { return sdk.executor.LastResponse().APIPath }

func (sdk *TikTokBridge) LastHTTPCode() int { return sdk.executor.LastResponse().StatusCode }

func (sdk *TikTokBridge) LastHeaders() map[string]string { return sdk.executor.LastResponse().Headers }

func (sdk *TikTokBridge) LastXHeaders() map[string]string {
	return sdk.executor.LastResponse().PrefixedHeaders
}

func (sdk *TikTokBridge) LastBody() any { return sdk.executor.LastResponse().Body }

func (sdk *TikTokBridge) LastAttempts() int { return sdk.executor.LastAttempts() }

func (sdk *TikTokBridge) ResetLastResponse() { sdk.executor.ResetLastResponse() }

// GetRateLimitInfo returns the limits the API host announced so far, or nil.
func (sdk *TikTokBridge) GetRateLimitInfo() *RateLimitInfo {
	return sdk.executor.RateLimiter().GetRateLimitInfo(hostOf(sdk.cfg.APIHost))
}

// decodeInto copies transport facts and the raw body into meta and decodes JSON bodies into
// out. A received response is never turned into an error: non-JSON bodies (e.g. an HTML
// error page from a proxy) leave out with only meta set, and a body that does not fit out is
// recorded in meta.DecodeErr.
func decodeInto(resp *Response, meta *ResponseMeta, out any) {
	meta.StatusCode = resp.StatusCode
	meta.APIPath = resp.APIPath
	meta.Raw = resp.Raw
	if _, isString := resp.Body.(string); isString || resp.Body == nil {
		return
	}
	if err := resp.Decode(out); err != nil {
		meta.DecodeErr = err
	}
}
