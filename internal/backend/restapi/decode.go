package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"taskmgr/internal/service"
)

// wireTask is a task as the API sends it. Pointer fields distinguish absent
// from empty.
type wireTask struct {
	MongoID     string  `json:"_id"`
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"dueDate"`
	Status      string  `json:"status"`
}

// complete reports whether the required fields are present.
func (w *wireTask) complete() bool {
	return w.Title != nil && w.Description != nil
}

// id prefers the Mongo "_id" over "id".
func (w *wireTask) id() string {
	if w.MongoID != "" {
		return w.MongoID
	}
	return w.ID
}

func (w *wireTask) task() (service.Task, error) {
	status, err := service.ParseStatus(w.Status)
	if err != nil {
		return service.Task{}, fmt.Errorf("%w: %v", service.ErrMalformedResponse, err)
	}
	t := service.Task{ID: w.id(), Status: status}
	if w.DueDate != "" {
		due, err := service.ParseDate(w.DueDate)
		if err != nil {
			return service.Task{}, fmt.Errorf("%w: %v", service.ErrMalformedResponse, err)
		}
		t.DueDate = &due
	}
	if w.Title != nil {
		t.Title = *w.Title
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	return t, nil
}

// decodeTask decodes a single-task response. The API answers either with the
// task itself or with {"task": {...}}; the flat shape is tried first.
func decodeTask(data []byte) (service.Task, error) {
	var flat wireTask
	if err := json.Unmarshal(data, &flat); err != nil {
		return service.Task{}, fmt.Errorf("%w: %v", service.ErrMalformedResponse, err)
	}
	if flat.complete() {
		return flat.task()
	}

	var wrapped struct {
		Task *wireTask `json:"task"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return service.Task{}, fmt.Errorf("%w: %v", service.ErrMalformedResponse, err)
	}
	if wrapped.Task != nil && wrapped.Task.complete() {
		return wrapped.Task.task()
	}
	return service.Task{}, service.ErrMalformedResponse
}

// decodeTasks decodes a list response. null is an empty list. A row that does
// not decode (unknown status, bad due date) is logged and left out; only a
// body that is not an array fails the whole list.
func decodeTasks(data []byte, log *slog.Logger) ([]service.Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []service.Task{}, nil
	}

	var items []wireTask
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrMalformedResponse, err)
	}

	tasks := make([]service.Task, 0, len(items))
	for i := range items {
		t, err := items[i].task()
		if err != nil {
			log.Warn("skipping task", "id", items[i].id(), "status", items[i].Status, "err", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
