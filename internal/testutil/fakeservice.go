// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"taskmgr/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int

	// Calls counts repository calls by method name.
	Calls map[string]int

	// Error injection for testing
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	SetStatusErr  error
	DeleteTaskErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{Calls: make(map[string]int)}
}

// AddTask stores a pending task with the given id.
func (f *FakeService) AddTask(id, title, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      service.StatusPending,
	})
}

// Put stores t as is, replacing a task with the same id.
func (f *FakeService) Put(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(t.ID); i >= 0 {
		f.tasks[i] = t
		return
	}
	f.tasks = append(f.tasks, t)
}

// Stored returns the task with id as the store holds it.
func (f *FakeService) Stored(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i := f.index(id); i >= 0 {
		return f.tasks[i], true
	}
	return service.Task{}, false
}

func (f *FakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[name]++
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id string) (service.Task, error) {
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	t, ok := f.Stored(id)
	if !ok {
		return service.Task{}, service.ErrNotFound
	}
	return t, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := service.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Status:      service.StatusPending,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	if patch.Title != nil {
		f.tasks[i].Title = *patch.Title
	}
	if patch.Description != nil {
		f.tasks[i].Description = *patch.Description
	}
	return f.tasks[i], nil
}

// SetStatus implements service.Service.
func (f *FakeService) SetStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	f.record("SetStatus")
	if f.SetStatusErr != nil {
		return service.Task{}, f.SetStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	f.tasks[i].Status = status
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.tasks = slices.Delete(f.tasks, i, i+1)
	return nil
}

// index returns the position of id, or -1. Callers hold mu.
func (f *FakeService) index(id string) int {
	return slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
}
