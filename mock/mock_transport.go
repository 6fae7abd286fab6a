package mock

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// ErrConnectionRefused is the default transport failure returned by a failing Transport.
var ErrConnectionRefused = errors.New("mock: connection refused")

// Step is one scripted outcome. Either Err is set or a response is built from the rest.
type Step struct {
	Err        error
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Transport is a scripted http.RoundTripper. It plays Steps in order and repeats the last
// one once the script runs out. Every request is recorded.
type Transport struct {
	mu       sync.Mutex
	Steps    []Step
	requests []*RecordedRequest
}

// RecordedRequest keeps what was sent, with the body already read.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Failing returns a Transport whose every attempt fails with err (ErrConnectionRefused if nil).
func Failing(err error) *Transport {
	if err == nil {
		err = ErrConnectionRefused
	}
	return &Transport{Steps: []Step{{Err: err}}}
}

// Responding returns a Transport that always answers with status and body.
func Responding(status int, body string) *Transport {
	return &Transport{Steps: []Step{{StatusCode: status, Body: body}}}
}

// Client wraps the transport in an *http.Client.
func (m *Transport) Client() *http.Client {
	return &http.Client{Transport: m}
}

func (m *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := &RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		rec.Body = data
	}

	m.mu.Lock()
	idx := len(m.requests)
	m.requests = append(m.requests, rec)
	var step Step
	switch {
	case len(m.Steps) == 0:
		step = Step{StatusCode: http.StatusOK, Body: `{"success":true}`}
	case idx < len(m.Steps):
		step = m.Steps[idx]
	default:
		step = m.Steps[len(m.Steps)-1]
	}
	m.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}

	status := step.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	header := http.Header{}
	for k, v := range step.Headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(step.Body)),
		Request:    req,
	}, nil
}

// Attempts returns how many requests reached the transport.
func (m *Transport) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the recorded requests in order.
func (m *Transport) Requests() []*RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
