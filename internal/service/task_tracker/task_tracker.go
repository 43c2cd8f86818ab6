package task_tracker

import (
	"context"
	"errors"

	"clausewise.app/review/internal/task"
)

var ErrNotConfigured = errors.New("task tracker not configured")

// CreatedTask is the handle returned by a tracker for a new task.
type CreatedTask struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Tracker creates review tasks in an external tracking service and resolves
// people in its directory.
type Tracker interface {
	LookupUser(ctx context.Context, email string) (accountID string, found bool, err error)
	CreateTask(ctx context.Context, record task.Record) (*CreatedTask, error)
	Name() string
}
