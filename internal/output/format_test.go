package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"taskmgr/internal/output"
	"taskmgr/internal/service"
	"taskmgr/internal/testutil"
	"taskmgr/internal/view"
)

func sampleTask(t *testing.T) service.Task {
	t.Helper()
	due, err := service.ParseDate("2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	return service.Task{ID: "t1", Title: "Buy milk", Description: "2%", DueDate: &due, Status: service.StatusPending}
}

func TestFormatList(t *testing.T) {
	var buf bytes.Buffer
	output.FormatTask(&buf, 1, sampleTask(t))
	output.FormatTask(&buf, 2, service.Task{ID: "t2", Title: "Walk\ndog", Status: service.StatusCompleted})
	output.FormatTask(&buf, 3, service.Task{ID: "t3", Title: "  ", Status: service.StatusPending})
	output.FormatStats(&buf, view.Stats{Total: 3, Pending: 2, Completed: 1})

	testutil.GoldenString(t, "list", buf.String())
}

func TestWriteTask_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteTask(&buf, sampleTask(t), output.FormatText); err != nil {
		t.Fatalf("WriteTask failed: %v", err)
	}
	testutil.GoldenString(t, "show", buf.String())
}

func TestWriteTask_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteTask(&buf, sampleTask(t), output.FormatJSON); err != nil {
		t.Fatalf("WriteTask failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	want := map[string]string{"id": "t1", "title": "Buy milk", "description": "2%", "dueDate": "2024-01-01", "status": "Pending"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestWriteTask_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteTask(&buf, sampleTask(t), output.FormatYAML); err != nil {
		t.Fatalf("WriteTask failed: %v", err)
	}

	var got struct {
		ID      string `yaml:"id"`
		Title   string `yaml:"title"`
		DueDate string `yaml:"dueDate"`
		Status  string `yaml:"status"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML %q: %v", buf.String(), err)
	}
	if got.ID != "t1" || got.Title != "Buy milk" || got.DueDate != "2024-01-01" || got.Status != "Pending" {
		t.Errorf("unexpected YAML output:\n%s", buf.String())
	}
}

func TestWriteTask_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteTask(&buf, sampleTask(t), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
