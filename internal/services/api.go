// HTTP client for the narrate backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/narrate/internal/shared"
)

const defaultBaseURL = "http://localhost:8000"

// Client makes requests to the backend REST API.
//
// Privileged calls take the bearer token as an argument; the client never
// stores it. Cookies (the refresh cookie) live in the http.Client's jar.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	logger         *log.Logger
}

// ClientOptions configures [NewClient]. Zero values pick defaults.
type ClientOptions struct {
	BaseURL string
	// HTTPClient should carry a cookie jar when refresh is used.
	HTTPClient        *http.Client
	RequestTimeout    time.Duration
	UploadTimeout     time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
}

// NewClient creates a backend client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	c := &Client{
		baseURL:        baseURL,
		httpClient:     client,
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
		logger:         logger,
	}

	if opts.RequestsPerSecond > 0 {
		burst := max(int(opts.RequestsPerSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx response from the backend.
//
// Message is taken from the body's "error" field, falling back to "detail".
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

// Unwrap lets callers match [shared.ErrAPIRequest], and [shared.ErrNeedsSignIn] for 401s.
func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{shared.ErrAPIRequest, shared.ErrNeedsSignIn}
	}
	return []error{shared.ErrAPIRequest}
}

// TransportError means the request never produced a response (network failure, timeout, bad body).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", shared.ErrServiceUnavailable, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{shared.ErrServiceUnavailable, e.Err}
}

// AsAPIError returns the [APIError] in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError decodes a failure body once so callers never read raw fields.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = messageOf(payload.Error)
		if msg == "" {
			msg = messageOf(payload.Detail)
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{StatusCode: status, Message: msg, Body: body}
}

// messageOf flattens the shapes a message field takes: a string, a list of strings, or an object of lists.
func messageOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s := messageOf(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(t))
		for _, k := range keys {
			if s := messageOf(t[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
	accept      string
	upload      bool
}

// do sends req and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	timeout := c.requestTimeout
	if req.upload {
		timeout = c.uploadTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: req.path, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.method, "path", req.path, "error", err)
		return nil, &TransportError{Op: req.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: req.path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("request", "method", req.method, "path", req.path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// doJSON sends in (if non-nil) as JSON and decodes a 2xx body into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	req := request{method: method, path: path, token: token}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}

	return decode(path, body, out)
}

func decode(path string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
