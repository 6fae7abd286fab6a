package tiktokbridge

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAccessToken(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("/v2/oauth/token/", r.URL.Path)
		assert.Equal(ContentTypeForm, r.Header.Get("Content-Type"))
		assert.NoError(r.ParseForm())
		assert.Equal("client-key", r.PostForm.Get("client_key"))
		assert.Equal("client-secret", r.PostForm.Get("client_secret"))
		assert.Equal("code*123!", r.PostForm.Get("code"))
		assert.Equal("authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal("https://example.com/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "act.1",
			"expires_in": 86400,
			"open_id": "open-1",
			"refresh_expires_in": 31536000,
			"refresh_token": "rft.1",
			"scope": "user.info.basic,video.publish",
			"token_type": "Bearer"
		}`))
	})

	tok, err := sdk.FetchAccessToken(context.Background(), "code%2A123%21")
	require.NoError(t, err)
	assert.True(tok.OK())
	assert.True(tok.IsSuccessful())
	assert.Equal("v2/oauth/token/", tok.APIPath)
	assert.Equal("act.1", tok.AccessToken)
	assert.Equal("rft.1", tok.RefreshToken)
	assert.Equal("open-1", tok.OpenID)

	o := tok.Token()
	assert.Equal("act.1", o.AccessToken)
	assert.Equal("rft.1", o.RefreshToken)
	assert.WithinDuration(time.Now().Add(24*time.Hour), o.Expiry, time.Minute)
	assert.Equal("open-1", o.Extra("open_id"))
	assert.Equal("user.info.basic,video.publish", o.Extra("scope"))
	assert.IsType(time.Time{}, o.Extra("refresh_expiry"))
}

func TestFetchAccessToken_ErrorBody(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code is expired.","log_id":"L9"}`))
	})

	tok, err := sdk.FetchAccessToken(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(tok.OK())
	assert.False(tok.IsSuccessful())
	assert.Equal(http.StatusBadRequest, tok.StatusCode)
	assert.Equal("invalid_grant", tok.Error)
	assert.Equal("L9", tok.LogID)
}

func TestRefreshAccessToken(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(r.ParseForm())
		assert.Equal("refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal("rft.old", r.PostForm.Get("refresh_token"))
		assert.Empty(r.PostForm.Get("code"))
		assert.Empty(r.PostForm.Get("redirect_uri"))
		_, _ = w.Write([]byte(`{"access_token":"act.2","expires_in":3600,"refresh_token":"rft.2","token_type":"Bearer"}`))
	})

	tok, err := sdk.RefreshAccessToken(context.Background(), "rft.old")
	require.NoError(t, err)
	assert.Equal("act.2", tok.AccessToken)
	assert.Equal("rft.2", tok.RefreshToken)
}

func TestUserInfo(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodGet, r.Method)
		assert.Equal("/v2/user/info/", r.URL.Path)
		assert.Equal("open_id,display_name", r.URL.Query().Get("fields"))
		assert.Equal("Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"user":{"open_id":"o1","display_name":"Dev"}},"error":{"code":"ok","message":"","log_id":"L1"}}`))
	})

	info, err := sdk.UserInfo(context.Background(), "user-token", "open_id", "display_name")
	require.NoError(t, err)
	assert.True(info.IsSuccessful())
	assert.True(info.Error.OK())
	assert.Equal("o1", info.Data.User.OpenID)
	assert.Equal("Dev", info.Data.User.DisplayName)
}

func TestUserInfo_DefaultsAndAPIError(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("display_name,avatar_url", r.URL.Query().Get("fields"))
		assert.Equal("Bearer cfg-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"data":{},"error":{"code":"access_token_invalid","message":"The access token is invalid","log_id":"L2"}}`))
	})

	info, err := sdk.UserInfo(context.Background(), "")
	require.NoError(t, err)
	assert.False(info.IsSuccessful())
	assert.False(info.Error.OK())
	assert.Equal("access_token_invalid", info.Error.Code)
	assert.Contains(info.Error.Error(), "L2")
}

func TestUserInfo_NonJSONBody(t *testing.T) {
	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	info, err := sdk.UserInfo(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, info.StatusCode)
	assert.Equal(t, "<html>bad gateway</html>", sdk.LastBody())
}

func TestUserInfo_GatewayErrorIsReturnedAsData(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"bad gateway"}`))
	})

	info, err := sdk.UserInfo(context.Background(), "t")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(http.StatusBadGateway, info.StatusCode)
	assert.False(info.IsSuccessful())
	assert.NoError(info.DecodeErr)
	assert.Equal("bad gateway", info.Error.Code)
	assert.False(info.Error.OK())
	assert.Equal(`{"error":"bad gateway"}`, string(info.Raw))
}

func TestUserInfo_UnexpectedShapeKeepsRawBody(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"data":{"user":{"display_name":"Dev","follower_count":"many"}},"error":[1,2]}`))
	})

	info, err := sdk.UserInfo(context.Background(), "t")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(http.StatusServiceUnavailable, info.StatusCode)
	assert.Error(info.DecodeErr)
	assert.Equal("Dev", info.Data.User.DisplayName)
	assert.Contains(string(info.Raw), "follower_count")
}

func TestRequestToken_ObjectErrorBody(t *testing.T) {
	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"invalid_client","message":"nope"}}`))
	})

	tok, err := sdk.RefreshAccessToken(context.Background(), "rft")
	require.NoError(t, err)
	assert.False(t, tok.OK())
	assert.Error(t, tok.DecodeErr)
	assert.Equal(t, http.StatusUnauthorized, tok.StatusCode)
}

func TestUserInfo_EscapesFields(t *testing.T) {
	assert := assert.New(t)

	sdk := newTestSDK(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("fields=open_id,display_name,bad%26field%3Dx", r.URL.RawQuery)
		assert.Equal([]string{"open_id,display_name,bad&field=x"}, r.URL.Query()["fields"])
		_, _ = w.Write([]byte(`{"data":{"user":{}},"error":{"code":"ok"}}`))
	})

	_, err := sdk.UserInfo(context.Background(), "t", "open_id", "display_name", "bad&field=x")
	require.NoError(t, err)
}
