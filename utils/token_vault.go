// token_vault.go
//
// This file provides TokenVault, which encrypts an oauth2.Token (including the TikTok
// open_id/scope extras) so callers can keep refresh tokens in a database or on disk without
// storing them in clear text. Keys are derived from a caller secret with HKDF-SHA256 and the
// payload is sealed with NaCl secretbox.
//
// Example usage:
//   vault, _ := utils.NewTokenVault(secret)
//   blob, _ := vault.Seal(resp.Token())
//   // store blob
//   tok, _ := vault.Open(blob)

package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

const (
	vaultKeySize   = 32
	vaultNonceSize = 24
	vaultInfo      = "tiktok-bridge token vault v1"
)

// ErrVaultCorrupt is returned when a sealed blob cannot be authenticated.
var ErrVaultCorrupt = errors.New("sealed token is corrupt or was sealed with another secret")

type TokenVault struct {
	key [vaultKeySize]byte
}

// storedToken is the serialized form; oauth2.Token does not marshal its extras.
type storedToken struct {
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	Expiry        time.Time `json:"expiry,omitempty"`
	OpenID        string    `json:"open_id,omitempty"`
	Scope         string    `json:"scope,omitempty"`
	RefreshExpiry time.Time `json:"refresh_expiry,omitempty"`
}

// NewTokenVault derives the vault key from secret, which should have at least 16 bytes.
func NewTokenVault(secret []byte) (*TokenVault, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("vault secret must be at least 16 bytes, got %d", len(secret))
	}
	v := &TokenVault{}
	kdf := hkdf.New(sha256.New, secret, nil, []byte(vaultInfo))
	if _, err := io.ReadFull(kdf, v.key[:]); err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return v, nil
}

// Seal encrypts tok. The output is nonce || ciphertext.
func (v *TokenVault) Seal(tok *oauth2.Token) ([]byte, error) {
	if tok == nil {
		return nil, fmt.Errorf("token is nil")
	}
	st := storedToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if s, ok := tok.Extra("open_id").(string); ok {
		st.OpenID = s
	}
	if s, ok := tok.Extra("scope").(string); ok {
		st.Scope = s
	}
	if t, ok := tok.Extra("refresh_expiry").(time.Time); ok {
		st.RefreshExpiry = t
	}

	plain, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}

	var nonce [vaultNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &v.key), nil
}

// Open decrypts a blob produced by Seal.
func (v *TokenVault) Open(blob []byte) (*oauth2.Token, error) {
	if len(blob) < vaultNonceSize+secretbox.Overhead {
		return nil, ErrVaultCorrupt
	}
	var nonce [vaultNonceSize]byte
	copy(nonce[:], blob[:vaultNonceSize])

	plain, ok := secretbox.Open(nil, blob[vaultNonceSize:], &nonce, &v.key)
	if !ok {
		return nil, ErrVaultCorrupt
	}

	var st storedToken
	if err := json.Unmarshal(plain, &st); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
	extra := map[string]any{
		"open_id": st.OpenID,
		"scope":   st.Scope,
	}
	if !st.RefreshExpiry.IsZero() {
		extra["refresh_expiry"] = st.RefreshExpiry
	}
	return tok.WithExtra(extra), nil
}
