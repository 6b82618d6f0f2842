package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/mocks"
	"github.com/phrazzld/taskly-api/internal/service"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(time.Second)
		return t
	}
}

func newTaskService(t *testing.T) (service.TaskService, *mocks.MockTaskStore) {
	t.Helper()
	taskStore := mocks.NewMockTaskStore()
	start := time.Date(2024, 5, 1, 9, 0, 0, 123456789, time.UTC)
	svc := service.NewTaskService(taskStore, quietLogger(), service.WithClock(steppingClock(start)))
	return svc, taskStore
}

func TestTaskService_CreateAndGet(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)
	ctx := context.Background()

	id, err := svc.CreateTask(ctx, "U1", map[string]any{"title": "A", "status": "todo"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	task, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, "U1", task.OwnerID)
	assert.Equal(t, "todo", task.Status)
	assert.Equal(t, "A", task.Fields["title"])
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Equal(t, 123000000, task.CreatedAt.Nanosecond(), "timestamps are truncated to milliseconds")
}

func TestTaskService_CreateIgnoresReservedFields(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)
	ctx := context.Background()

	id, err := svc.CreateTask(ctx, "U1", map[string]any{
		"_id":       "forged",
		"owner":     "someone-else",
		"createdAt": "1999-01-01T00:00:00Z",
		"title":     "A",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "forged", id)

	task, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "U1", task.OwnerID)
	assert.Equal(t, map[string]any{"title": "A"}, task.Fields)
}

func TestTaskService_CreateValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)

	_, err := svc.CreateTask(context.Background(), "U1", map[string]any{"status": 3})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTask(context.Background(), "", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrEmptyOwner)
}

func TestTaskService_CreateWithoutIdentifier(t *testing.T) {
	t.Parallel()
	taskStore := &mocks.TestifyMockTaskStore{}
	taskStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Task")).Return("", nil)

	svc := service.NewTaskService(taskStore, quietLogger())
	_, err := svc.CreateTask(context.Background(), "U1", map[string]any{"title": "A"})
	assert.ErrorIs(t, err, service.ErrMissingTaskID)
	taskStore.AssertExpectations(t)
}

func TestTaskService_ListTasks(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)
	ctx := context.Background()

	for i, status := range []string{"todo", "done", "todo", "todo", "done", "todo"} {
		_, err := svc.CreateTask(ctx, "U1", map[string]any{"n": i, "status": status})
		require.NoError(t, err)
	}
	_, err := svc.CreateTask(ctx, "U2", map[string]any{"n": 99})
	require.NoError(t, err)

	tasks, total, err := svc.ListTasks(ctx, "U1", store.TaskListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, tasks, store.TaskPageSize)

	tasks, total, err = svc.ListTasks(ctx, "U1", store.TaskListParams{Page: "2"})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, tasks, 2)

	tasks, total, err = svc.ListTasks(ctx, "U1", store.TaskListParams{Status: "todo"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	for _, task := range tasks {
		assert.Equal(t, "U1", task.OwnerID)
		assert.Equal(t, "todo", task.Status)
	}

	_, _, err = svc.ListTasks(ctx, "U1", store.TaskListParams{OrderBy: "title; DROP TABLE tasks"})
	assert.ErrorIs(t, err, store.ErrInvalidSortField)
}

func TestTaskService_ListPassesQueryToStore(t *testing.T) {
	t.Parallel()
	taskStore := &mocks.TestifyMockTaskStore{}
	want := store.TaskQuery{OwnerID: "U1", Status: "done", OrderBy: "title", Skip: 8, Limit: 4}
	taskStore.On("List", mock.Anything, want).Return([]*domain.Task{}, int64(9), nil)

	svc := service.NewTaskService(taskStore, quietLogger())
	_, total, err := svc.ListTasks(context.Background(), "U1", store.TaskListParams{
		Page: "3", Status: "done", OrderBy: "title",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 9, total)
	taskStore.AssertExpectations(t)
}

func TestTaskService_UpdateTask(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)
	ctx := context.Background()

	id, err := svc.CreateTask(ctx, "U1", map[string]any{"title": "A", "priority": 1, "status": "todo"})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, id, map[string]any{"title": "B", "status": "done"})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Fields["title"])
	assert.Equal(t, 1, updated.Fields["priority"], "untouched caller fields are kept")
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, "U1", updated.OwnerID)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = svc.UpdateTask(ctx, "missing", map[string]any{"title": "C"})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = svc.UpdateTask(ctx, id, map[string]any{"owner": 7})
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Parallel()
	svc, _ := newTaskService(t)
	ctx := context.Background()

	id, err := svc.CreateTask(ctx, "U1", map[string]any{"title": "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, id))

	_, err = svc.GetTask(ctx, id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	err = svc.DeleteTask(ctx, id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskService_WrapsStoreErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	taskStore := mocks.NewMockTaskStore()
	taskStore.GetByIDFn = func(ctx context.Context, id string) (*domain.Task, error) {
		return nil, boom
	}

	svc := service.NewTaskService(taskStore, quietLogger())
	_, err := svc.GetTask(context.Background(), "T1")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to retrieve task")
}
