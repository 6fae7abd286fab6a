package tiktokbridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJSON = "application/json"
)

// Request describes one logical call against a TikTok origin.
type Request struct {
	BaseURL  string
	Method   string // GET or POST
	Path     string // relative to BaseURL, may carry its own query string
	Params   map[string]any
	Headers  map[string]string
	Sanitize bool // HTML-escape string params before sending
}

// Response is the normalized result of a request.
type Response struct {
	APIPath         string
	StatusCode      int
	Headers         map[string]string
	PrefixedHeaders map[string]string
	Body            any
	Raw             []byte
	Attempts        int

	decoding BodyDecoding
	prefix   string
}

func newResponse(decoding BodyDecoding, prefix string) *Response {
	return &Response{
		Headers:         map[string]string{},
		PrefixedHeaders: map[string]string{},
		decoding:        decoding,
		prefix:          strings.ToLower(prefix),
	}
}

// SetBody stores a body. Strings and byte slices are parsed as JSON according to the
// configured decoding and kept as a raw string when they are not JSON; anything else is
// stored as-is.
func (r *Response) SetBody(body any) {
	var data []byte
	switch b := body.(type) {
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		r.Body = body
		return
	}

	r.Raw = data
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		r.Body = string(data)
		return
	}

	if r.decoding == DecodeRawJSON {
		r.Body = json.RawMessage(trimmed)
		return
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		r.Body = string(data)
		return
	}
	r.Body = v
}

// SetHeaders keeps every header (lower-cased) and the subset starting with the prefix.
func (r *Response) SetHeaders(h http.Header) {
	r.Headers = make(map[string]string, len(h))
	r.PrefixedHeaders = map[string]string{}
	for k, vals := range h {
		if len(vals) == 0 {
			continue
		}
		key := strings.ToLower(k)
		val := strings.Join(vals, ", ")
		r.Headers[key] = val
		if r.prefix != "" && strings.HasPrefix(key, r.prefix) {
			r.PrefixedHeaders[key] = val
		}
	}
}

// IsSuccessful reports a 2xx status.
func (r *Response) IsSuccessful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Raw)) == 0 {
		return fmt.Errorf("empty response body for %s (status %d)", r.APIPath, r.StatusCode)
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("decode response body for %s: %w", r.APIPath, err)
	}
	return nil
}
