package tiktokbridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrRequestExhausted is matched by every RequestExhaustedError.
	ErrRequestExhausted = errors.New("maximum retry limit reached with no successful response")

	// ErrUnsupportedConfig is matched by every UnsupportedConfigError.
	ErrUnsupportedConfig = errors.New("unsupported configuration")
)

// TransportError is a failure to complete an HTTP exchange: connection, DNS, timeout or
// cancellation. A received response, whatever its status, is never a TransportError.
type TransportError struct {
	Method  string
	URL     string
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s %s (attempt %d): %v", e.Method, e.URL, e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequestExhaustedError is returned once every allowed attempt failed at the transport level.
type RequestExhaustedError struct {
	Attempts int
	Last     *TransportError
}

func (e *RequestExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempt(s)", ErrRequestExhausted, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrRequestExhausted, e.Attempts, e.Last.Err)
}

func (e *RequestExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// Is implements errors.Is for sentinel error matching.
func (e *RequestExhaustedError) Is(target error) bool {
	return target == ErrRequestExhausted
}

// UnsupportedConfigError reports an invalid configuration value.
type UnsupportedConfigError struct {
	Field  string
	Reason string
}

func (e *UnsupportedConfigError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Field, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *UnsupportedConfigError) Is(target error) bool {
	return target == ErrUnsupportedConfig
}

// APIError is the "error" object TikTok embeds in response bodies. It is data, not a Go
// error returned by the SDK: callers inspect it alongside the HTTP status.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// UnmarshalJSON also accepts a bare string, which gateways and the token endpoint send
// in place of the error object.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*e = APIError{Code: code}
		return nil
	}
	type plain APIError
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = APIError(p)
	return nil
}

// OK reports whether the API signalled success.
func (e APIError) OK() bool {
	return e.Code == "" || e.Code == "ok"
}

func (e APIError) Error() string {
	if e.LogID != "" {
		return fmt.Sprintf("tiktok API error %s: %s (log_id: %s)", e.Code, e.Message, e.LogID)
	}
	return fmt.Sprintf("tiktok API error %s: %s", e.Code, e.Message)
}
