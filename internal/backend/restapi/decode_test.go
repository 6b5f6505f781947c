package restapi

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"taskmgr/internal/service"
)

var discard = slog.New(slog.DiscardHandler)

func TestDecodeTask_FlatAndWrappedAgree(t *testing.T) {
	flat, err := decodeTask([]byte(`{"title":"x","description":"y"}`))
	if err != nil {
		t.Fatalf("flat decode failed: %v", err)
	}
	wrapped, err := decodeTask([]byte(`{"task":{"title":"x","description":"y"}}`))
	if err != nil {
		t.Fatalf("wrapped decode failed: %v", err)
	}
	if flat != wrapped {
		t.Errorf("expected identical tasks, got %+v and %+v", flat, wrapped)
	}
	if flat.Status != service.StatusPending {
		t.Errorf("expected missing status to decode as Pending, got %q", flat.Status)
	}
}

func TestDecodeTask_Fields(t *testing.T) {
	task, err := decodeTask([]byte(`{"_id":"65a1","title":"Buy milk","description":"2%","dueDate":"2024-01-01T00:00:00.000Z","status":"Completed"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if task.ID != "65a1" || task.Title != "Buy milk" || task.Description != "2%" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || task.DueDate.String() != "2024-01-01" {
		t.Errorf("unexpected due date: %v", task.DueDate)
	}
	if task.Status != service.StatusCompleted {
		t.Errorf("expected Completed, got %q", task.Status)
	}
}

func TestDecodeTask_IDAlias(t *testing.T) {
	task, err := decodeTask([]byte(`{"id":"42","title":"a","description":""}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if task.ID != "42" {
		t.Errorf("expected id 42, got %q", task.ID)
	}
}

func TestDecodeTask_Malformed(t *testing.T) {
	bodies := []string{
		`{"description":"y"}`,
		`{"title":"x"}`,
		`{"task":{"title":"x"}}`,
		`{"task":null}`,
		`{"message":"ok"}`,
		`[]`,
		`not json`,
		``,
		`{"title":"x","description":"y","status":"Archived"}`,
	}
	for _, body := range bodies {
		task, err := decodeTask([]byte(body))
		if !errors.Is(err, service.ErrMalformedResponse) {
			t.Errorf("decodeTask(%q): expected ErrMalformedResponse, got %v", body, err)
		}
		if task != (service.Task{}) {
			t.Errorf("decodeTask(%q): expected zero task, got %+v", body, task)
		}
	}
}

func TestDecodeTasks(t *testing.T) {
	for _, body := range []string{"", "null", "[]", " [] "} {
		tasks, err := decodeTasks([]byte(body), discard)
		if err != nil {
			t.Errorf("decodeTasks(%q): unexpected error %v", body, err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("decodeTasks(%q): expected empty non-nil slice, got %v", body, tasks)
		}
	}

	tasks, err := decodeTasks([]byte(`[{"_id":"1","title":"a","description":"b"},{"_id":"2","title":"c","description":"d","status":"Completed"}]`), discard)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].Status != service.StatusCompleted {
		t.Errorf("unexpected tasks: %+v", tasks)
	}

	if _, err := decodeTasks([]byte(`{"tasks":[]}`), discard); !errors.Is(err, service.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for object body, got %v", err)
	}
}

func TestDecodeTasks_SkipsUndecodableRows(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	body := `[
		{"_id":"1","title":"a","description":"b","status":"Pending"},
		{"_id":"2","title":"c","description":"d","status":"In Progress"},
		{"_id":"3","title":"e","description":"f","dueDate":"someday"},
		{"_id":"4","title":"g","description":"h","status":"Completed"}
	]`
	tasks, err := decodeTasks([]byte(body), log)
	if err != nil {
		t.Fatalf("expected the list to survive bad rows, got %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].ID != "4" {
		t.Errorf("expected tasks 1 and 4, got %+v", tasks)
	}
	if !strings.Contains(logs.String(), "id=2") || !strings.Contains(logs.String(), "id=3") {
		t.Errorf("expected skipped rows to be logged, got %q", logs.String())
	}
}
