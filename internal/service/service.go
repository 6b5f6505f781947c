package service

import "context"

// Service defines the task repository operations.
// The view state and the commands only talk to the remote store through it.
type Service interface {
	// ListTasks returns the authenticated user's tasks in store order.
	// An empty slice is a valid result.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns a single task. Fails with ErrNotFound if it does not exist
	// and ErrMalformedResponse if the store answered with an unrecognized shape.
	GetTask(ctx context.Context, id string) (Task, error)

	// CreateTask creates a task and returns it with its store-assigned ID.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask applies the non-nil fields of patch.
	UpdateTask(ctx context.Context, id string, patch Patch) (Task, error)

	// SetStatus changes only the status of a task.
	SetStatus(ctx context.Context, id string, status Status) (Task, error)

	// DeleteTask deletes a task. Deleting an unknown ID fails with ErrNotFound.
	DeleteTask(ctx context.Context, id string) error
}
