package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
)

// TaskService provides the task operations behind the /tasks routes.
type TaskService interface {
	// ListTasks returns one page of ownerID's tasks and the number of tasks
	// matching the owner and status filter across all pages.
	ListTasks(ctx context.Context, ownerID string, params store.TaskListParams) ([]*domain.Task, int64, error)

	// GetTask returns a single task, or store.ErrTaskNotFound.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// CreateTask stores body as a new task owned by ownerID and returns its identifier.
	CreateTask(ctx context.Context, ownerID string, body map[string]any) (string, error)

	// UpdateTask merges body into the stored task and returns the result.
	UpdateTask(ctx context.Context, taskID string, body map[string]any) (*domain.Task, error)

	// DeleteTask removes a task, or returns store.ErrTaskNotFound.
	DeleteTask(ctx context.Context, taskID string) error
}

// TaskServiceOption customizes a task service.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

type taskServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a TaskService backed by taskStore.
func NewTaskService(taskStore store.TaskStore, logger *slog.Logger, opts ...TaskServiceOption) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &taskServiceImpl{
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "task_service")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current time at the millisecond precision both
// backends store, so a returned task compares equal to its stored copy.
func (s *taskServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	ownerID string,
	params store.TaskListParams,
) ([]*domain.Task, int64, error) {
	q, err := store.NewTaskQuery(ownerID, params)
	if err != nil {
		s.logger.Debug("rejected task list query",
			"owner_id", ownerID,
			"order_by", params.OrderBy,
			"error", err)
		return nil, 0, err
	}

	tasks, total, err := s.taskStore.List(ctx, q)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"owner_id", ownerID,
			"skip", q.Skip,
			"status", q.Status,
			"order_by", q.OrderBy)
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	s.logger.Debug("listed tasks",
		"owner_id", ownerID,
		"returned", len(tasks),
		"total", total)
	return tasks, total, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		s.logStoreError("failed to retrieve task", err, taskID)
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, ownerID string, body map[string]any) (string, error) {
	task, err := domain.NewTask(ownerID, body, s.timestamp())
	if err != nil {
		s.logger.Debug("invalid task payload", "owner_id", ownerID, "error", err)
		return "", err
	}

	id, err := s.taskStore.Create(ctx, task)
	if err != nil {
		s.logger.Error("failed to create task", "error", err, "owner_id", ownerID)
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	if id == "" {
		s.logger.Error("task store returned no identifier", "owner_id", ownerID)
		return "", ErrMissingTaskID
	}

	s.logger.Info("task created", "task_id", id, "owner_id", ownerID)
	return id, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, taskID string, body map[string]any) (*domain.Task, error) {
	upd, err := domain.NewTaskUpdate(body, s.timestamp())
	if err != nil {
		s.logger.Debug("invalid task update payload", "task_id", taskID, "error", err)
		return nil, err
	}

	task, err := s.taskStore.Update(ctx, taskID, upd)
	if err != nil {
		s.logStoreError("failed to update task", err, taskID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task updated", "task_id", taskID)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		s.logStoreError("failed to delete task", err, taskID)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted", "task_id", taskID)
	return nil
}

// logStoreError logs misses at debug level and everything else as an error.
func (s *taskServiceImpl) logStoreError(msg string, err error, taskID string) {
	if errors.Is(err, store.ErrTaskNotFound) {
		s.logger.Debug(msg, "task_id", taskID, "error", err)
		return
	}
	s.logger.Error(msg, "task_id", taskID, "error", err)
}
