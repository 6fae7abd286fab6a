// state_token.go
//
// Package utils provides helpers around the TikTok login flow that sit outside the SDK core.
//
// This file seals the CSRF state returned by TikTokBridge.AuthURL into a short-lived,
// HMAC-signed token. The caller still decides where to keep it (a cookie, a session store);
// the sealed form only makes tampering and replay after expiry detectable.
//
// Example usage:
//   authURL, state, _ := sdk.AuthURL(nil)
//   sealed, _ := utils.SealState(secret, state, 10*time.Minute)
//   // set sealed as a cookie, redirect to authURL
//   // on callback:
//   err := utils.VerifyState(secret, cookieValue, r.URL.Query().Get("state"))

package utils

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const stateIssuer = "tiktok-bridge"

var (
	// ErrStateMismatch is returned when the callback state differs from the sealed one.
	ErrStateMismatch = errors.New("csrf state mismatch")
)

type stateClaims struct {
	State string `json:"st"`
	jwt.RegisteredClaims
}

// SealState signs state with secret and an expiry of ttl.
func SealState(secret []byte, state string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("a signing secret is required to seal the state")
	}
	if state == "" {
		return "", fmt.Errorf("state is empty")
	}
	now := time.Now()
	claims := stateClaims{
		State: state,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// OpenState verifies a sealed state and returns the original value.
func OpenState(secret []byte, sealed string) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(sealed, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid sealed state: %w", err)
	}
	if claims.Issuer != stateIssuer {
		return "", fmt.Errorf("invalid sealed state: unexpected issuer %q", claims.Issuer)
	}
	return claims.State, nil
}

// VerifyState opens sealed and compares it with the state TikTok echoed back.
func VerifyState(secret []byte, sealed, returned string) error {
	state, err := OpenState(secret, sealed)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(returned)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
