package tiktokbridge

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/net/http/httpproxy"
)

// newHTTPClient builds the http.Client for a config: pooled transport, connect timeout,
// overall timeout, proxy and compression settings.
func newHTTPClient(cfg *Config) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()

	if cfg.ConnectionTimeout > 0 {
		dialer := &net.Dialer{
			Timeout:   cfg.ConnectionTimeout,
			KeepAlive: 30 * time.Second,
		}
		transport.DialContext = dialer.DialContext
		transport.TLSHandshakeTimeout = cfg.ConnectionTimeout
	}

	transport.Proxy = proxyFunc(cfg.Proxy)
	// Go's transport negotiates gzip itself; disabling compression turns that off.
	transport.DisableCompression = !cfg.GzipEncoding

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

func proxyFunc(p *ProxySettings) func(*http.Request) (*url.URL, error) {
	if p == nil {
		return http.ProxyFromEnvironment
	}
	pc := &httpproxy.Config{
		HTTPProxy:  p.HTTPProxy,
		HTTPSProxy: p.HTTPSProxy,
		NoProxy:    p.NoProxy,
	}
	fn := pc.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}
