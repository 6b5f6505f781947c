package restapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"taskmgr/internal/backend/restapi"
	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

// call records one request made through fakeRequester.
type call struct {
	method string
	path   string
	body   string
}

// fakeRequester answers every request with a canned response.
type fakeRequester struct {
	calls    []call
	response string
	err      error
}

func (f *fakeRequester) Request(ctx context.Context, method, path string, body any) ([]byte, error) {
	c := call{method: method, path: path}
	if body != nil {
		data, _ := json.Marshal(body)
		c.body = string(data)
	}
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.response), nil
}

func (f *fakeRequester) last(t *testing.T) call {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("expected a request")
	}
	return f.calls[len(f.calls)-1]
}

func TestClient_Requests(t *testing.T) {
	due, _ := service.ParseDate("2024-01-01")
	title := "New title"

	tests := []struct {
		name       string
		run        func(c *restapi.Client) error
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name:       "list",
			run:        func(c *restapi.Client) error { _, err := c.ListTasks(context.Background()); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/tasks",
		},
		{
			name:       "get escapes id",
			run:        func(c *restapi.Client) error { _, err := c.GetTask(context.Background(), "a/b"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/tasks/a%2Fb",
		},
		{
			name: "create",
			run: func(c *restapi.Client) error {
				_, err := c.CreateTask(context.Background(), service.Draft{Title: "Buy milk", Description: "2%", DueDate: &due})
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/tasks",
			wantBody:   `{"title":"Buy milk","description":"2%","dueDate":"2024-01-01"}`,
		},
		{
			name: "update sends only set fields",
			run: func(c *restapi.Client) error {
				_, err := c.UpdateTask(context.Background(), "t1", service.Patch{Title: &title})
				return err
			},
			wantMethod: http.MethodPut,
			wantPath:   "/tasks/t1",
			wantBody:   `{"title":"New title"}`,
		},
		{
			name: "set status sends status only",
			run: func(c *restapi.Client) error {
				_, err := c.SetStatus(context.Background(), "t1", service.StatusCompleted)
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/tasks/t1",
			wantBody:   `{"status":"Completed"}`,
		},
		{
			name:       "delete",
			run:        func(c *restapi.Client) error { return c.DeleteTask(context.Background(), "t1") },
			wantMethod: http.MethodDelete,
			wantPath:   "/tasks/t1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRequester{response: `{"_id":"t1","title":"x","description":"y"}`}
			if tt.wantPath == "/tasks" && tt.wantMethod == http.MethodGet {
				fake.response = `[]`
			}
			c := restapi.NewWithRequester(fake, nil)

			if err := tt.run(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := fake.last(t)
			if got.method != tt.wantMethod || got.path != tt.wantPath {
				t.Errorf("expected %s %s, got %s %s", tt.wantMethod, tt.wantPath, got.method, got.path)
			}
			if got.body != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, got.body)
			}
		})
	}
}

func TestClient_NotFoundKeepsTransportError(t *testing.T) {
	fake := &fakeRequester{err: &transport.Error{StatusCode: http.StatusNotFound, ServerMessage: "Task not found"}}
	c := restapi.NewWithRequester(fake, nil)

	_, err := c.GetTask(context.Background(), "gone")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.ServerMessage != "Task not found" {
		t.Errorf("expected transport error to stay reachable, got %v", err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	fake := &fakeRequester{err: &transport.Error{StatusCode: http.StatusUnauthorized}}
	c := restapi.NewWithRequester(fake, nil)

	if _, err := c.ListTasks(context.Background()); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_UnreachablePassesThrough(t *testing.T) {
	fake := &fakeRequester{err: &transport.Error{Reason: transport.ReasonUnreachable}}
	c := restapi.NewWithRequester(fake, nil)

	err := c.DeleteTask(context.Background(), "t1")
	var terr *transport.Error
	if !errors.As(err, &terr) || !terr.Unreachable() {
		t.Errorf("expected unreachable transport error, got %v", err)
	}
	if errors.Is(err, service.ErrNotFound) {
		t.Error("unreachable must not look like not found")
	}
}

func TestClient_MalformedGet(t *testing.T) {
	fake := &fakeRequester{response: `{"message":"ok"}`}
	c := restapi.NewWithRequester(fake, nil)

	if _, err := c.GetTask(context.Background(), "t1"); !errors.Is(err, service.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_ListKeepsValidRows(t *testing.T) {
	fake := &fakeRequester{response: `[{"_id":"1","title":"a","description":"b","status":"Pending"},{"_id":"2","title":"c","description":"d","status":"In Progress"}]`}
	var logs bytes.Buffer
	c := restapi.NewWithRequester(fake, slog.New(slog.NewTextHandler(&logs, nil)))

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "1" {
		t.Errorf("expected only task 1, got %+v", tasks)
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), `status="In Progress"`) {
		t.Errorf("expected a warning for the skipped row, got %q", logs.String())
	}
}
