package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HTTPTransport implements Transport over the marketplace HTTP/JSON API.
type HTTPTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.httpClient = c }
}

// WithRateLimit throttles outgoing requests to rps per second. A rate of zero
// or less disables throttling.
func WithRateLimit(rps float64) HTTPOption {
	return func(t *HTTPTransport) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// NewHTTPTransport creates a transport targeting baseURL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPTransport(baseURL, token string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Close is a no-op for the HTTP transport.
func (t *HTTPTransport) Close() error { return nil }

// Send performs an HTTP request with optional JSON body and decodes the
// response envelope. path may carry an already-encoded query string.
func (t *HTTPTransport) Send(ctx context.Context, method, path string, body any) (*model.Envelope, error) {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, &model.TransportError{Op: op, Err: err}
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	// 204 No Content: success with an empty envelope.
	if resp.StatusCode == http.StatusNoContent {
		return &model.Envelope{}, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	var env model.Envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && (env.ErrorCode != "" || env.HumanMessage != "") {
			return nil, &model.ServerError{StatusCode: resp.StatusCode, Code: env.ErrorCode, HumanMessage: env.HumanMessage}
		}
		return nil, &model.ServerError{StatusCode: resp.StatusCode, HumanMessage: strings.TrimSpace(string(respBody))}
	}
	if decodeErr != nil {
		return nil, &model.ServerError{
			StatusCode:   resp.StatusCode,
			Code:         "bad_payload",
			HumanMessage: decodeErr.Error(),
			Err:          &model.DeserializationError{Err: decodeErr},
		}
	}
	if env.Failed() {
		return nil, &model.ServerError{StatusCode: resp.StatusCode, Code: env.ErrorCode, HumanMessage: env.HumanMessage}
	}
	return &env, nil
}
