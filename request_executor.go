package tiktokbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestExecutor issues requests, retries transport failures and keeps the last response.
//
// Retry policy: a received response of any status is returned as-is and never retried. A
// transport failure is retried after a fixed RetryDelay while attempts <= MaxRetries, so
// MaxRetries = N allows at most N+1 attempts. When all attempts fail the executor returns a
// *RequestExhaustedError.
type RequestExecutor struct {
	cfg     Config
	client  HTTPDoer
	limiter *RateLimiter
	pacer   Pacer
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	debug    bool
	last     *Response
	attempts int
}

// NewRequestExecutor snapshots cfg. A nil client gets one built from cfg.
func NewRequestExecutor(cfg *Config, client HTTPDoer) *RequestExecutor {
	snapshot := *cfg
	if snapshot.Proxy != nil {
		p := *snapshot.Proxy
		snapshot.Proxy = &p
	}
	if client == nil {
		client = newHTTPClient(&snapshot)
	}

	re := &RequestExecutor{
		cfg:     snapshot,
		client:  client,
		limiter: NewRateLimiter(),
		logger:  snapshot.logger(),
		sleep:   sleepContext,
	}
	if snapshot.RequestsPerSecond > 0 {
		burst := int(snapshot.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		re.pacer = rate.NewLimiter(rate.Limit(snapshot.RequestsPerSecond), burst)
	}
	re.last = newResponse(snapshot.BodyDecoding, snapshot.HeaderPrefix)
	return re
}

// SetHTTPClient swaps the transport, e.g. for tests or custom TLS settings.
func (re *RequestExecutor) SetHTTPClient(client HTTPDoer) {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.client = client
}

func (re *RequestExecutor) SetDebug(enabled bool) {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.debug = enabled
}

// ResetLastResponse clears the stored last response and attempt counter.
func (re *RequestExecutor) ResetLastResponse() {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.last = newResponse(re.cfg.BodyDecoding, re.cfg.HeaderPrefix)
	re.attempts = 0
}

// LastResponse returns the response of the most recent call. It is never nil.
func (re *RequestExecutor) LastResponse() *Response {
	re.mu.Lock()
	defer re.mu.Unlock()
	return re.last
}

// LastAttempts returns how many attempts the most recent call made.
func (re *RequestExecutor) LastAttempts() int {
	re.mu.Lock()
	defer re.mu.Unlock()
	return re.attempts
}

// RateLimiter exposes the server-announced limits seen so far.
func (re *RequestExecutor) RateLimiter() *RateLimiter {
	return re.limiter
}

// Execute sends req and returns the normalized response. Only transport failures become
// errors; non-2xx responses are returned for the caller to inspect.
func (re *RequestExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	re.ResetLastResponse()

	method := strings.ToUpper(req.Method)
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported request method %q", req.Method)
	}

	headers := req.Headers
	if len(headers) == 0 {
		headers = map[string]string{"Content-Type": ContentTypeForm}
	}

	params := req.Params
	if req.Sanitize || re.cfg.SanitizeParams {
		params = SanitizeParameters(params)
	}

	fullURL, body, err := buildTarget(method, req.BaseURL, req.Path, params, headerValue(headers, "Content-Type"))
	if err != nil {
		return nil, err
	}
	host := hostOf(fullURL)

	attempts := 0
	for {
		if err := re.waitTurn(ctx, host); err != nil {
			re.recordAttempts(attempts)
			return nil, &TransportError{Method: method, URL: fullURL, Attempt: attempts + 1, Err: err}
		}

		re.debugf("Sending request", "method", method, "url", fullURL, "attempt", attempts+1)
		start := time.Now()
		resp, err := re.dispatch(ctx, method, fullURL, headers, body, req.Path, attempts+1)
		if err == nil {
			requestsTotal.WithLabelValues(method, host, strconv.Itoa(resp.StatusCode)).Inc()
			requestDuration.WithLabelValues(method, host).Observe(time.Since(start).Seconds())
			re.limiter.UpdateRateLimits(host, ParseRateLimitInfo(resp.Headers, time.Now()))
			re.mu.Lock()
			re.last = resp
			re.attempts = resp.Attempts
			re.mu.Unlock()
			if attempts > 0 {
				re.debugf("Request succeeded after retries", "path", req.Path, "attempts", attempts+1, "status", resp.StatusCode)
			}
			return resp, nil
		}

		attempts++
		transportErrors.WithLabelValues(method, host).Inc()
		tErr := &TransportError{Method: method, URL: fullURL, Attempt: attempts, Err: err}
		if ctx.Err() != nil {
			re.recordAttempts(attempts)
			return nil, tErr
		}
		if attempts > re.cfg.MaxRetries {
			re.recordAttempts(attempts)
			requestsExhausted.WithLabelValues(method, host).Inc()
			re.logger.Warn("request failed, no retries left", "method", method, "url", fullURL, "attempts", attempts, "err", err)
			return nil, &RequestExhaustedError{Attempts: attempts, Last: tErr}
		}

		re.logger.Warn("request failed, retrying", "method", method, "url", fullURL, "attempt", attempts, "maxRetries", re.cfg.MaxRetries, "delay", re.cfg.RetryDelay, "err", err)
		if err := re.sleep(ctx, re.cfg.RetryDelay); err != nil {
			re.recordAttempts(attempts)
			return nil, &TransportError{Method: method, URL: fullURL, Attempt: attempts, Err: err}
		}
	}
}

func (re *RequestExecutor) dispatch(ctx context.Context, method, fullURL string, headers map[string]string, body []byte, apiPath string, attempt int) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	re.mu.Lock()
	client := re.client
	re.mu.Unlock()

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	resp := newResponse(re.cfg.BodyDecoding, re.cfg.HeaderPrefix)
	resp.APIPath = apiPath
	resp.StatusCode = httpResp.StatusCode
	resp.SetHeaders(httpResp.Header)
	resp.SetBody(data)
	resp.Attempts = attempt
	return resp, nil
}

// waitTurn blocks for client-side pacing and for any server-announced reset on host.
func (re *RequestExecutor) waitTurn(ctx context.Context, host string) error {
	if re.pacer != nil {
		if err := re.pacer.Wait(ctx); err != nil {
			return err
		}
	}
	if !re.limiter.canProceed(host) {
		delay := re.limiter.delayBeforeNextRequest(host)
		if delay > 0 {
			rateLimitWaits.WithLabelValues(host).Inc()
			re.debugf("Waiting for rate limit reset", "host", host, "delay", delay)
			return re.sleep(ctx, delay)
		}
	}
	return ctx.Err()
}

func (re *RequestExecutor) recordAttempts(n int) {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.attempts = n
}

func (re *RequestExecutor) debugf(msg string, args ...any) {
	re.mu.Lock()
	enabled := re.debug
	re.mu.Unlock()
	if enabled {
		re.logger.Debug(msg, args...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// buildTarget resolves the final URL and body for a request.
func buildTarget(method, baseURL, path string, params map[string]any, contentType string) (string, []byte, error) {
	fullURL := joinURL(baseURL, path)

	if method == http.MethodGet {
		if len(params) > 0 {
			sep := "?"
			if strings.Contains(fullURL, "?") {
				sep = "&"
			}
			fullURL += sep + encodeForm(params).Encode()
		}
		return fullURL, nil, nil
	}

	if len(params) == 0 {
		return fullURL, nil, nil
	}
	if isJSONContentType(contentType) {
		data, err := json.Marshal(params)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return fullURL, data, nil
	}
	return fullURL, []byte(encodeForm(params).Encode()), nil
}

func joinURL(baseURL, path string) string {
	if baseURL == "" {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeJSON
}

// encodeForm flattens params with bracket notation: a[b]=c, list[0]=x.
func encodeForm(params map[string]any) url.Values {
	vals := url.Values{}
	for _, k := range sortedKeys(params) {
		flattenValue(vals, k, params[k])
	}
	return vals
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenValue(vals url.Values, key string, v any) {
	switch val := v.(type) {
	case nil:
	case string:
		vals.Add(key, val)
	case bool:
		if val {
			vals.Add(key, "1")
		} else {
			vals.Add(key, "0")
		}
	case json.Number:
		vals.Add(key, val.String())
	case []string:
		for i, item := range val {
			vals.Add(key+"["+strconv.Itoa(i)+"]", item)
		}
	case []any:
		for i, item := range val {
			flattenValue(vals, key+"["+strconv.Itoa(i)+"]", item)
		}
	case map[string]any:
		for _, k := range sortedKeys(val) {
			flattenValue(vals, key+"["+k+"]", val[k])
		}
	case map[string]string:
		for _, k := range sortedKeys(val) {
			vals.Add(key+"["+k+"]", val[k])
		}
	case []map[string]any:
		for i, item := range val {
			flattenValue(vals, key+"["+strconv.Itoa(i)+"]", item)
		}
	case url.Values:
		for k, items := range val {
			for _, item := range items {
				vals.Add(key+"["+k+"]", item)
			}
		}
	default:
		vals.Add(key, fmt.Sprint(val))
	}
}
