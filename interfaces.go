package tiktokbridge

import (
	"context"
	"net/http"
)

// HTTPDoer is the transport the RequestExecutor dispatches through. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Pacer throttles outgoing requests on the client side. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// TokenRefresher exchanges a refresh token for a new token set.
// *TikTokBridge satisfies it.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}
