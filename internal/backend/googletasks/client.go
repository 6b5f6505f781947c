// Package googletasks implements service.Service over the Google Tasks API,
// keeping every task in the user's default list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per page.
	PageSize = 100

	// Scope is the OAuth scope needed for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
}

// OAuthConfig reads the OAuth client credentials for cfg.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}
	return oauthConfig, nil
}

// New creates a Google Tasks client from the stored OAuth client and token.
// It returns service.ErrNotLoggedIn when either file is missing.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.HasOAuthClient() || !cfg.HasToken() {
		return nil, service.ErrNotLoggedIn
	}
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.TokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.TokenFile, err)
	}

	// The token source refreshes expired access tokens on its own.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.Timeout
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// ListTasks implements service.Service. Completed tasks are included; hidden
// and deleted ones are not.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(DefaultListID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(false).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, toTask(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(ctx, err)
	}
	return result, nil
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	t, err := c.svc.Tasks.Get(DefaultListID, id).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(ctx, err)
	}
	return toTask(t), nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	in := &tasks.Task{
		Title:  draft.Title,
		Notes:  draft.Description,
		Status: statusNeedsAction,
	}
	if draft.DueDate != nil {
		in.Due = draft.DueDate.Format(time.RFC3339)
	}
	t, err := c.svc.Tasks.Insert(DefaultListID, in).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(ctx, err)
	}
	return toTask(t), nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	in := &tasks.Task{}
	if patch.Title != nil {
		in.Title = *patch.Title
		in.ForceSendFields = append(in.ForceSendFields, "Title")
	}
	if patch.Description != nil {
		in.Notes = *patch.Description
		in.ForceSendFields = append(in.ForceSendFields, "Notes")
	}
	t, err := c.svc.Tasks.Patch(DefaultListID, id, in).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(ctx, err)
	}
	return toTask(t), nil
}

// SetStatus implements service.Service.
func (c *Client) SetStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	in := &tasks.Task{Status: statusNeedsAction}
	if status == service.StatusCompleted {
		in.Status = statusCompleted
	} else {
		// Reopening requires clearing the completion timestamp.
		in.NullFields = []string{"Completed"}
	}
	t, err := c.svc.Tasks.Patch(DefaultListID, id, in).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(ctx, err)
	}
	return toTask(t), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.svc.Tasks.Delete(DefaultListID, id).Context(ctx).Do(); err != nil {
		return wrapError(ctx, err)
	}
	return nil
}

func toTask(t *tasks.Task) service.Task {
	task := service.Task{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Notes,
		Status:      service.StatusPending,
	}
	if t.Status == statusCompleted {
		task.Status = service.StatusCompleted
	}
	if t.Due != "" {
		if d, err := service.ParseDate(t.Due); err == nil {
			task.DueDate = &d
		}
	}
	return task
}

// wrapError maps API failures onto the same errors the REST backend returns,
// so commands report both backends alike.
func wrapError(ctx context.Context, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		terr := &transport.Error{StatusCode: gerr.Code, ServerMessage: gerr.Message}
		switch {
		case terr.NotFound():
			return fmt.Errorf("%w: %w", service.ErrNotFound, terr)
		case terr.Unauthorized():
			return fmt.Errorf("%w: %w", service.ErrUnauthorized, terr)
		default:
			return terr
		}
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &transport.Error{Reason: transport.ReasonTimeout, Err: err}
	case errors.Is(ctx.Err(), context.Canceled):
		return &transport.Error{Reason: transport.ReasonCanceled, Err: err}
	default:
		return &transport.Error{Reason: transport.ReasonUnreachable, Err: err}
	}
}
