package store

import (
	"context"

	"github.com/phrazzld/taskly-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// List returns one page of tasks matching q and the number of tasks that
	// match q's filter regardless of paging.
	List(ctx context.Context, q TaskQuery) ([]*domain.Task, int64, error)

	// GetByID returns the task with the given identifier, or ErrTaskNotFound.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// Create inserts task, stores the generated identifier in task.ID and
	// returns it.
	Create(ctx context.Context, task *domain.Task) (string, error)

	// Update applies upd to the task with the given identifier and returns the
	// stored result, or ErrTaskNotFound when no task matched.
	Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error)

	// Delete removes the task, or returns ErrTaskNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error
}
