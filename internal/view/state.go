// Package view holds the in-memory task collection shown to the user and
// keeps it consistent with the remote store.
//
// Every intent makes exactly one repository call. The collection changes only
// after the store confirms; on failure it is left as it was. The lock is never
// held across a repository call, so two intents on the same task race and the
// later response wins.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"taskmgr/internal/service"
)

// Phase is the load state of the collection.
type Phase int

const (
	Loading Phase = iota
	Loaded
)

func (p Phase) String() string {
	if p == Loaded {
		return "loaded"
	}
	return "loading"
}

// ErrNoSuchTask is returned by Resolve when no task matches the reference.
var ErrNoSuchTask = errors.New("no such task")

// Stats are the dashboard counters.
type Stats struct {
	Total     int
	Pending   int
	Completed int
}

// State owns the task collection.
type State struct {
	svc service.Service
	log *slog.Logger

	mu      sync.RWMutex
	phase   Phase
	tasks   []service.Task
	loadErr error
}

// New creates a State in the Loading phase.
func New(svc service.Service, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &State{svc: svc, log: logger, phase: Loading}
}

// Load replaces the collection with a fresh list from the store. On failure
// the collection becomes empty, Err reports the failure and the error is
// returned; nothing is retried.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	s.phase = Loading
	s.mu.Unlock()

	tasks, err := s.svc.ListTasks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Loaded
	if err != nil {
		s.log.Warn("failed to load tasks", "err", err)
		s.tasks = nil
		s.loadErr = err
		return err
	}
	s.tasks = tasks
	s.loadErr = nil
	return nil
}

// Phase returns the current load phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Err returns the error of the last Load, if it failed.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Tasks returns a copy of the collection.
func (s *State) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Stats counts the collection by status.
func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		switch t.Status {
		case service.StatusPending:
			st.Pending++
		case service.StatusCompleted:
			st.Completed++
		}
	}
	return st
}

// Resolve finds a task by 1-based position in the collection or by id. A
// number outside the collection is tried as an id, so all-digit ids stay
// reachable.
func (s *State) Resolve(ref string) (service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.tasks) {
		return s.tasks[n-1], nil
	}
	if i := s.index(ref); i >= 0 {
		return s.tasks[i], nil
	}
	return service.Task{}, fmt.Errorf("%w: %s", ErrNoSuchTask, ref)
}

// Find finds a task by id only.
func (s *State) Find(id string) (service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		return s.tasks[i], nil
	}
	return service.Task{}, fmt.Errorf("%w: %s", ErrNoSuchTask, id)
}

// Create validates draft, creates it remotely and appends the stored task.
// The task is not inserted before the store confirms it.
func (s *State) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	due := ""
	if draft.DueDate != nil {
		due = draft.DueDate.String()
	}
	if err := service.Require("title", draft.Title, "description", draft.Description, "dueDate", due); err != nil {
		return service.Task{}, err
	}

	task, err := s.svc.CreateTask(ctx, draft)
	if err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return task, nil
}

// Delete deletes a task remotely, then removes it from the collection.
func (s *State) Delete(ctx context.Context, id string) error {
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
	return nil
}

// Complete marks a task completed remotely, then updates only the status of
// the matching task in the collection.
func (s *State) Complete(ctx context.Context, id string) error {
	if _, err := s.svc.SetStatus(ctx, id, service.StatusCompleted); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks[i].Status = service.StatusCompleted
	}
	return nil
}

// Prefill fetches a task for the edit form.
func (s *State) Prefill(ctx context.Context, id string) (service.Task, error) {
	return s.svc.GetTask(ctx, id)
}

// SubmitEdit validates and sends an edit. The collection is not patched in
// place; the next Load picks the change up.
func (s *State) SubmitEdit(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	var fields []string
	if patch.Title != nil {
		fields = append(fields, "title", *patch.Title)
	}
	if patch.Description != nil {
		fields = append(fields, "description", *patch.Description)
	}
	if len(fields) == 0 {
		return service.Task{}, &service.ValidationError{Fields: []string{"title or description"}}
	}
	if err := service.Require(fields...); err != nil {
		return service.Task{}, err
	}
	return s.svc.UpdateTask(ctx, id, patch)
}

// index returns the position of id in the collection, or -1. Callers hold mu.
func (s *State) index(id string) int {
	return slices.IndexFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
}
