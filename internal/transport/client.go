// Package transport performs JSON requests against the task API base URL.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-Id"

// Options configures a Client.
type Options struct {
	// BaseURL is prefixed to every request path, e.g. "http://localhost:5000/api".
	BaseURL string

	// HTTPClient is the underlying client. A fresh one is used when nil.
	HTTPClient *http.Client

	// Jar stores session cookies. A new in-memory jar is used when nil.
	Jar http.CookieJar

	// Token, when set, is sent as a bearer token on every request.
	Token string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// Logger receives request debug lines.
	Logger *slog.Logger
}

// Client performs requests against the API. It never retries.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url: %s", opts.BaseURL)
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	// Credentials are included on every call: the cookie jar carries the
	// session, the oauth2 transport carries an optional static token.
	hc.Jar = jar
	if opts.Token != "" {
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   hc.Transport,
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		base:    base,
		http:    hc,
		jar:     jar,
		timeout: opts.Timeout,
		log:     logger,
	}, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the cookie jar holding the session.
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// Request sends method to path (relative to the base URL) with body encoded as
// JSON when non-nil, and returns the raw response body of a 2xx response.
// Any other outcome is returned as *Error.
func (c *Client) Request(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "id", reqID, "method", method, "path", path, "err", err)
		return nil, networkError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(ctx, err)
	}
	c.log.Debug("request", "id", reqID, "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			StatusCode:    resp.StatusCode,
			ServerMessage: serverMessage(data),
		}
	}
	return data, nil
}

// networkError classifies a failure where no (complete) response was received.
func networkError(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Reason: ReasonTimeout, Err: err}
	case errors.Is(ctx.Err(), context.Canceled):
		return &Error{Reason: ReasonCanceled, Err: err}
	default:
		return &Error{Reason: ReasonUnreachable, Err: err}
	}
}

// serverMessage extracts the "message" (or "error") field of a JSON error body.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
