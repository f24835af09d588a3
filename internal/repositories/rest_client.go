package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is any other non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource func(ctx context.Context) (string, error)

type RESTOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *slog.Logger
}

// RESTClient talks JSON to the dashboard backend.
type RESTClient struct {
	baseURL string
	http    *retryablehttp.Client
	token   TokenSource
}

func NewRESTClient(baseURL string, opts RESTOptions) *RESTClient {
	client := retryablehttp.NewClient()
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	// Keep the last response so status codes map to our errors.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if opts.Logger != nil {
		client.Logger = opts.Logger
	}

	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

// WithToken returns a client sharing the same transport that authenticates
// every request with ts.
func (c *RESTClient) WithToken(ts TokenSource) *RESTClient {
	clone := *c
	clone.token = ts
	return &clone
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	// bearer overrides the token source when set
	bearer string
}

func (c *RESTClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *RESTClient) sendJSON(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, request{method: method, path: path, body: body, contentType: "application/json"}, out)
}

func (c *RESTClient) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body any
	if r.body != nil {
		body = r.body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	token := r.bearer
	if token == "" && c.token != nil {
		token, err = c.token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

// unwrap pulls one named field out of a {"name": ...} envelope.
func unwrap[T any](envelope map[string]json.RawMessage, key string) (T, error) {
	var out T
	raw, ok := envelope[key]
	if !ok {
		return out, fmt.Errorf("response missing %q", key)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return out, nil
}
