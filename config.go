// config.go
// ----------
// This file defines the Config structure, which holds the TikTok app credentials and the
// policy the request executor runs with: timeouts, retries, proxying, compression and how
// response bodies are decoded.
//
// The identity fields (client key, client secret, redirect URI) are set once by NewConfig.
// Everything else is changed through setters, which validate their input. The executor takes
// a snapshot of the Config when it is built, so later mutations do not leak into running clients.
package tiktokbridge

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultAuthHost = "https://www.tiktok.com/"
	DefaultAPIHost  = "https://open.tiktokapis.com/"

	DefaultTimeout           = 5 * time.Second
	DefaultConnectionTimeout = 5 * time.Second
	DefaultRetryDelay        = time.Second
	DefaultChunkSize         = 250000 // 0.25 MB
	DefaultHeaderPrefix      = "x-"
)

var supportedVersions = []string{"2"}

// BodyDecoding selects how JSON response bodies are stored on a Response.
type BodyDecoding int

const (
	// DecodeGenericJSON decodes into map[string]any / []any, keeping numbers as json.Number.
	DecodeGenericJSON BodyDecoding = iota
	// DecodeRawJSON keeps the body as json.RawMessage for later typed decoding.
	DecodeRawJSON
)

// ProxySettings mirrors the usual proxy environment variables.
type ProxySettings struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// Config holds credentials and request policy for a TikTokBridge.
type Config struct {
	clientKey    string
	clientSecret string
	redirectURI  string

	AccessToken string
	Bearer      string

	APIVersion        string
	Timeout           time.Duration
	ConnectionTimeout time.Duration
	MaxRetries        int           // Retries after the first failed attempt
	RetryDelay        time.Duration // Fixed delay between attempts
	ChunkSize         int
	BodyDecoding      BodyDecoding
	Proxy             *ProxySettings
	GzipEncoding      bool
	SanitizeParams    bool
	RequestsPerSecond float64 // 0 disables client-side pacing
	HeaderPrefix      string

	AuthHost string
	APIHost  string

	Logger *slog.Logger
}

// NewConfig returns a Config with defaults applied. accessToken may be empty.
func NewConfig(clientKey, clientSecret, redirectURI, accessToken string) *Config {
	return &Config{
		clientKey:         clientKey,
		clientSecret:      clientSecret,
		redirectURI:       redirectURI,
		AccessToken:       accessToken,
		Bearer:            accessToken,
		APIVersion:        "2",
		Timeout:           DefaultTimeout,
		ConnectionTimeout: DefaultConnectionTimeout,
		MaxRetries:        0,
		RetryDelay:        DefaultRetryDelay,
		ChunkSize:         DefaultChunkSize,
		BodyDecoding:      DecodeGenericJSON,
		GzipEncoding:      true,
		HeaderPrefix:      DefaultHeaderPrefix,
		AuthHost:          DefaultAuthHost,
		APIHost:           DefaultAPIHost,
	}
}

// ConfigFromEnv builds a Config from TIKTOK_* environment variables.
func ConfigFromEnv() (*Config, error) {
	key := os.Getenv("TIKTOK_CLIENT_KEY")
	secret := os.Getenv("TIKTOK_CLIENT_SECRET")
	if key == "" || secret == "" {
		return nil, &UnsupportedConfigError{Field: "client credentials", Reason: "TIKTOK_CLIENT_KEY and TIKTOK_CLIENT_SECRET must be set"}
	}
	cfg := NewConfig(key, secret, os.Getenv("TIKTOK_REDIRECT_URI"), os.Getenv("TIKTOK_ACCESS_TOKEN"))

	maxRetries, delay := cfg.MaxRetries, cfg.RetryDelay
	if v := os.Getenv("TIKTOK_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse TIKTOK_MAX_RETRIES: %w", err)
		}
		maxRetries = n
	}
	if v := os.Getenv("TIKTOK_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse TIKTOK_RETRY_DELAY: %w", err)
		}
		delay = d
	}
	if err := cfg.SetRetries(maxRetries, delay); err != nil {
		return nil, err
	}
	if v := os.Getenv("TIKTOK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse TIKTOK_TIMEOUT: %w", err)
		}
		if err := cfg.SetTimeouts(cfg.ConnectionTimeout, d); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) ClientKey() string    { return c.clientKey }
func (c *Config) ClientSecret() string { return c.clientSecret }
func (c *Config) RedirectURI() string  { return c.redirectURI }

// SetAPIVersion only accepts versions the API still serves.
func (c *Config) SetAPIVersion(version string) error {
	for _, v := range supportedVersions {
		if v == version {
			c.APIVersion = version
			return nil
		}
	}
	return &UnsupportedConfigError{Field: "api version", Reason: fmt.Sprintf("unsupported API version %q", version)}
}

func (c *Config) SetTimeouts(connectionTimeout, timeout time.Duration) error {
	if connectionTimeout < 0 || timeout < 0 {
		return &UnsupportedConfigError{Field: "timeouts", Reason: "timeouts must not be negative"}
	}
	c.ConnectionTimeout = connectionTimeout
	c.Timeout = timeout
	return nil
}

func (c *Config) SetRetries(maxRetries int, retryDelay time.Duration) error {
	if maxRetries < 0 || retryDelay < 0 {
		return &UnsupportedConfigError{Field: "retries", Reason: "max retries and retry delay must not be negative"}
	}
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return nil
}

func (c *Config) SetBodyDecoding(mode BodyDecoding) error {
	if mode != DecodeGenericJSON && mode != DecodeRawJSON {
		return &UnsupportedConfigError{Field: "body decoding", Reason: fmt.Sprintf("unknown mode %d", mode)}
	}
	c.BodyDecoding = mode
	return nil
}

func (c *Config) SetProxy(proxy *ProxySettings) { c.Proxy = proxy }

func (c *Config) SetGzipEncoding(enabled bool) { c.GzipEncoding = enabled }

func (c *Config) SetChunkSize(size int) error {
	if size <= 0 {
		return &UnsupportedConfigError{Field: "chunk size", Reason: "chunk size must be positive"}
	}
	c.ChunkSize = size
	return nil
}

func (c *Config) SetAccessToken(token string) { c.AccessToken = token }

func (c *Config) SetBearer(token string) { c.Bearer = token }

// SetRequestsPerSecond paces outgoing requests on the client side. Zero disables pacing.
func (c *Config) SetRequestsPerSecond(rps float64) error {
	if rps < 0 {
		return &UnsupportedConfigError{Field: "requests per second", Reason: "must not be negative"}
	}
	c.RequestsPerSecond = rps
	return nil
}

// SetHosts overrides the authorization and API origins, mostly for tests.
func (c *Config) SetHosts(authHost, apiHost string) {
	if authHost != "" {
		c.AuthHost = authHost
	}
	if apiHost != "" {
		c.APIHost = apiHost
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default().With("subsystem", "tiktok-bridge")
}
