package tiktokbridge

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// refreshingSource refreshes through a TokenRefresher whenever the cached token expires.
type refreshingSource struct {
	ctx       context.Context
	refresher TokenRefresher

	mu    sync.Mutex
	token *oauth2.Token
}

// TokenSource returns an oauth2.TokenSource that hands out tok while it is valid and calls
// RefreshAccessToken once it expires. The context is used for refresh requests.
func (sdk *TikTokBridge) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return NewTokenSource(ctx, sdk, tok)
}

// NewTokenSource wraps any TokenRefresher. tok may be nil if only a refresh is possible,
// which then fails because there is no refresh token.
func NewTokenSource(ctx context.Context, refresher TokenRefresher, tok *oauth2.Token) oauth2.TokenSource {
	src := &refreshingSource{ctx: ctx, refresher: refresher, token: tok}
	return oauth2.ReuseTokenSource(tok, src)
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.Valid() {
		return s.token, nil
	}
	if s.token == nil || s.token.RefreshToken == "" {
		return nil, fmt.Errorf("token expired and no refresh token available")
	}

	resp, err := s.refresher.RefreshAccessToken(s.ctx, s.token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	if !resp.OK() {
		code := resp.Error
		if code == "" {
			code = fmt.Sprintf("http_%d", resp.StatusCode)
		}
		return nil, &oauth2.RetrieveError{
			ErrorCode:        code,
			ErrorDescription: resp.ErrorDescription,
		}
	}

	next := resp.Token()
	if next.RefreshToken == "" {
		next.RefreshToken = s.token.RefreshToken
	}
	s.token = next
	return next, nil
}
