// Package restapi implements service.Service over the task HTTP API.
package restapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

// Requester performs one API request and returns the 2xx response body.
// *transport.Client implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Client implements service.Service and the auth endpoints.
type Client struct {
	tr      Requester
	http    *transport.Client
	session string
	log     *slog.Logger
}

// New creates a client for cfg, restoring the saved session if there is one.
func New(cfg *config.Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	jar, err := transport.LoadSession(cfg.SessionPath(), base)
	if err != nil {
		return nil, err
	}
	tc, err := transport.New(transport.Options{
		BaseURL: cfg.BaseURL,
		Jar:     jar,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger(),
	})
	if err != nil {
		return nil, err
	}
	return &Client{tr: tc, http: tc, session: cfg.SessionPath(), log: cfg.Logger()}, nil
}

// NewAuthenticated is like New but fails with service.ErrNotLoggedIn when
// neither a saved session nor a token is available.
func NewAuthenticated(cfg *config.Config) (*Client, error) {
	if !cfg.HasSession() && cfg.Token == "" {
		return nil, service.ErrNotLoggedIn
	}
	return New(cfg)
}

// NewWithRequester creates a client over an arbitrary requester (for testing).
// A nil logger discards.
func NewWithRequester(tr Requester, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{tr: tr, log: logger}
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	data, err := c.tr.Request(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, wrapError(err)
	}
	return decodeTasks(data, c.log)
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	data, err := c.tr.Request(ctx, http.MethodGet, taskPath(id), nil)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return decodeTask(data)
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	data, err := c.tr.Request(ctx, http.MethodPost, "/tasks", draft)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return decodeTask(data)
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	data, err := c.tr.Request(ctx, http.MethodPut, taskPath(id), patch)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return decodeTask(data)
}

// SetStatus implements service.Service.
func (c *Client) SetStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	body := struct {
		Status service.Status `json:"status"`
	}{status}
	data, err := c.tr.Request(ctx, http.MethodPatch, taskPath(id), body)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return decodeTask(data)
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if _, err := c.tr.Request(ctx, http.MethodDelete, taskPath(id), nil); err != nil {
		return wrapError(err)
	}
	return nil
}

// Login posts credentials to /auth/login and saves the session cookie the
// server sets.
func (c *Client) Login(ctx context.Context, creds service.Credentials) error {
	if _, err := c.tr.Request(ctx, http.MethodPost, "/auth/login", creds); err != nil {
		return wrapError(err)
	}
	if c.http == nil || c.session == "" {
		return nil
	}
	saved, err := transport.SaveSession(c.session, c.http.Jar(), c.http.BaseURL())
	if err != nil {
		return err
	}
	if !saved {
		return errors.New("server did not set a session cookie")
	}
	return nil
}

// Signup posts a new account to /auth/signup.
func (c *Client) Signup(ctx context.Context, account service.Account) error {
	if _, err := c.tr.Request(ctx, http.MethodPost, "/auth/signup", account); err != nil {
		return wrapError(err)
	}
	return nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// wrapError tags transport failures with the matching service sentinel while
// keeping the *transport.Error reachable through errors.As.
func wrapError(err error) error {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return err
	}
	switch {
	case terr.NotFound():
		return fmt.Errorf("%w: %w", service.ErrNotFound, err)
	case terr.Unauthorized():
		return fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
	default:
		return err
	}
}
