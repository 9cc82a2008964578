// Package api is the HTTP client for the personal-finance server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// Credentials is the session the client presents on every call.
type Credentials struct {
	CookieName  string
	CookieValue string
	CSRFHeader  string
	CSRFToken   string
}

// CredentialsProvider supplies the current session credentials.
type CredentialsProvider interface {
	Credentials() Credentials
}

// CallRecorder receives one record per completed call.
type CallRecorder func(call models.APICall)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCSRF sets the anti-forgery header name and token.
func WithCSRF(header, token string) Option {
	return func(c *Client) {
		c.csrfHeader = header
		c.csrfToken = token
	}
}

// WithCallRecorder registers a hook for the call log.
func WithCallRecorder(rec CallRecorder) Option {
	return func(c *Client) {
		c.recorder = rec
	}
}

// Client talks to the analysis, user and notification endpoints.
type Client struct {
	httpClient *http.Client
	creds      CredentialsProvider
	recorder   CallRecorder
	baseURL    string
	csrfHeader string
	csrfToken  string
	mu         sync.RWMutex
}

// NewClient creates a client for baseURL. The default http.Client has no
// timeout because analysis generation can take tens of seconds; callers
// cancel through the context instead.
func NewClient(baseURL string, creds CredentialsProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetCSRF replaces the anti-forgery header and token.
func (c *Client) SetCSRF(header, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfHeader = header
	c.csrfToken = token
}

// HasCSRF reports whether an anti-forgery token is configured.
func (c *Client) HasCSRF() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfHeader != "" && c.csrfToken != ""
}

// response is a fully read HTTP response.
type response struct {
	header http.Header
	body   []byte
	status int
}

func (r *response) isJSON() bool {
	ct := r.header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// do performs one request and classifies the status. 2xx and 3xx other
// than login redirects are returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, accept string) (*response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", accept)
	c.applyCredentials(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{Method: method, Path: path, Err: err}
		c.record(method, path, requestID, 0, start, "network", netErr)
		return nil, netErr
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		netErr := &NetworkError{Method: method, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
		c.record(method, path, requestID, resp.StatusCode, start, "network", netErr)
		return nil, netErr
	}

	logger.Debug("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	err = classifyStatus(resp, body)
	c.record(method, path, requestID, resp.StatusCode, start, outcomeOf(err), err)
	if err != nil {
		return nil, err
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func (c *Client) applyCredentials(req *http.Request) {
	c.mu.RLock()
	header, token := c.csrfHeader, c.csrfToken
	c.mu.RUnlock()

	if c.creds != nil {
		creds := c.creds.Credentials()
		if creds.CookieName != "" && creds.CookieValue != "" {
			req.AddCookie(&http.Cookie{Name: creds.CookieName, Value: creds.CookieValue})
		}
		if creds.CSRFHeader != "" && creds.CSRFToken != "" {
			header, token = creds.CSRFHeader, creds.CSRFToken
		}
	}

	if header != "" && token != "" {
		req.Header.Set(header, token)
	}
}

func classifyStatus(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		if strings.Contains(resp.Header.Get("Location"), "login") {
			return ErrUnauthorized
		}
		return newStatusError(resp.StatusCode, body)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return newStatusError(resp.StatusCode, body)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (c *Client) record(method, path, requestID string, status int, start time.Time, outcome string, err error) {
	if c.recorder == nil {
		return
	}
	call := models.APICall{
		Timestamp:  start,
		Method:     method,
		Path:       path,
		StatusCode: status,
		DurationMs: int(time.Since(start).Milliseconds()),
		Outcome:    outcome,
		RequestID:  requestID,
	}
	if err != nil {
		call.Error = err.Error()
	}
	c.recorder(call)
}

// getJSON issues a GET and decodes a JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, "application/json")
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *response, out any) error {
	if !resp.isJSON() {
		return &StatusError{
			StatusCode: resp.status,
			Message:    fmt.Sprintf("unexpected content type %q", resp.header.Get("Content-Type")),
		}
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &StatusError{
			StatusCode: resp.status,
			Message:    fmt.Sprintf("failed to parse response: %v", err),
		}
	}
	return nil
}
