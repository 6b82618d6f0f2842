// Package storetest holds behavioural test suites that every store.TaskStore
// and store.UserStore implementation must pass. Backend packages call them from
// their integration tests with a factory for a fresh store.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TaskStoreFactory returns a store for one subtest. It may register cleanups on t.
type TaskStoreFactory func(t *testing.T) store.TaskStore

// UserStoreFactory returns a store for one subtest. It may register cleanups on t.
type UserStoreFactory func(t *testing.T) store.UserStore

// num builds a caller number the way request bodies are decoded.
func num(n int) json.Number {
	return json.Number(fmt.Sprint(n))
}

// now is truncated to milliseconds, the coarsest precision of any backend.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func mustCreateTask(t *testing.T, s store.TaskStore, owner string, body map[string]any, at time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, body, at)
	require.NoError(t, err)
	id, err := s.Create(context.Background(), task)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return task
}

func mustQuery(t *testing.T, owner string, params store.TaskListParams) store.TaskQuery {
	t.Helper()
	q, err := store.NewTaskQuery(owner, params)
	require.NoError(t, err)
	return q
}

// RunTaskStoreTests exercises the full TaskStore contract. newID must return a
// fresh identifier in the store's native format, used for owners and for
// lookups of tasks that do not exist.
func RunTaskStoreTests(t *testing.T, newStore TaskStoreFactory, newID func() string) {
	ctx := context.Background()

	t.Run("create then get returns the stored task", func(t *testing.T) {
		s := newStore(t)
		owner := newID()
		at := now()

		created := mustCreateTask(t, s, owner, map[string]any{"title": "A", "status": "todo"}, at)

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, owner, got.OwnerID)
		assert.Equal(t, "todo", got.Status)
		assert.Equal(t, map[string]any{"title": "A"}, got.Fields)
		assert.True(t, at.Equal(got.CreatedAt), "createdAt %v != %v", got.CreatedAt, at)
		assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
	})

	t.Run("nested caller fields survive a round trip", func(t *testing.T) {
		s := newStore(t)
		body := map[string]any{
			"title":    "nested",
			"priority": num(3),
			"big":      json.Number("9007199254740993"),
			"done":     false,
			"meta":     map[string]any{"tags": []any{"a", "b"}, "weight": json.Number("1.5")},
		}
		created := mustCreateTask(t, s, newID(), body, now())

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, body, got.Fields)
		assert.Empty(t, got.Status)
	})

	t.Run("get unknown task is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(ctx, newID())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("malformed identifiers are rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, store.ErrInvalidID)

		_, _, err = s.List(ctx, mustQuery(t, "not-an-id", store.TaskListParams{}))
		assert.ErrorIs(t, err, store.ErrInvalidID)

		assert.ErrorIs(t, s.Delete(ctx, "not-an-id"), store.ErrInvalidID)
	})

	t.Run("list only returns the owner's tasks", func(t *testing.T) {
		s := newStore(t)
		owner, other := newID(), newID()
		for i := 0; i < 3; i++ {
			mustCreateTask(t, s, owner, map[string]any{"title": fmt.Sprintf("mine %d", i)}, now())
			mustCreateTask(t, s, other, map[string]any{"title": fmt.Sprintf("theirs %d", i)}, now())
		}

		tasks, total, err := s.List(ctx, mustQuery(t, owner, store.TaskListParams{}))
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, tasks, 3)
		for _, task := range tasks {
			assert.Equal(t, owner, task.OwnerID)
		}
	})

	t.Run("status filter and total count ignore paging", func(t *testing.T) {
		s := newStore(t)
		owner := newID()
		for i := 0; i < 6; i++ {
			mustCreateTask(t, s, owner, map[string]any{"status": "todo", "n": num(i)}, now())
		}
		for i := 0; i < 3; i++ {
			mustCreateTask(t, s, owner, map[string]any{"status": "done", "n": num(i)}, now())
		}

		tasks, total, err := s.List(ctx, mustQuery(t, owner, store.TaskListParams{Status: "done"}))
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, tasks, 3)
		for _, task := range tasks {
			assert.Equal(t, "done", task.Status)
		}

		tasks, total, err = s.List(ctx, mustQuery(t, owner, store.TaskListParams{}))
		require.NoError(t, err)
		assert.EqualValues(t, 9, total)
		assert.Len(t, tasks, store.TaskPageSize)

		tasks, total, err = s.List(ctx, mustQuery(t, owner, store.TaskListParams{Status: "archived"}))
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, tasks)
		assert.NotNil(t, tasks)
	})

	t.Run("pages follow the requested sort", func(t *testing.T) {
		s := newStore(t)
		owner := newID()
		// Inserted out of order so natural order and sort order differ.
		for _, n := range []int{6, 2, 0, 5, 3, 1, 4} {
			mustCreateTask(t, s, owner, map[string]any{"n": num(n)}, now())
		}

		page := func(p string) []json.Number {
			tasks, total, err := s.List(ctx, mustQuery(t, owner, store.TaskListParams{Page: p, OrderBy: "n"}))
			require.NoError(t, err)
			assert.EqualValues(t, 7, total)
			values := make([]json.Number, 0, len(tasks))
			for _, task := range tasks {
				values = append(values, task.Fields["n"].(json.Number))
			}
			return values
		}

		assert.Equal(t, []json.Number{"0", "1", "2", "3"}, page("1"))
		assert.Equal(t, []json.Number{"4", "5", "6"}, page("2"))
		assert.Empty(t, page("3"))
		assert.Equal(t, []json.Number{"0", "1", "2", "3"}, page("junk"))
		assert.Empty(t, page("9223372036854775807"))
	})

	t.Run("tasks missing the sort field come first", func(t *testing.T) {
		s := newStore(t)
		owner := newID()
		base := now()
		mustCreateTask(t, s, owner, map[string]any{"title": "two", "n": num(2), "status": "b"}, base)
		mustCreateTask(t, s, owner, map[string]any{"title": "none"}, base.Add(time.Second))
		mustCreateTask(t, s, owner, map[string]any{"title": "one", "n": num(1), "status": "a"}, base.Add(2*time.Second))

		titles := func(orderBy string) []string {
			tasks, _, err := s.List(ctx, mustQuery(t, owner, store.TaskListParams{OrderBy: orderBy}))
			require.NoError(t, err)
			out := make([]string, 0, len(tasks))
			for _, task := range tasks {
				out = append(out, task.Fields["title"].(string))
			}
			return out
		}

		assert.Equal(t, []string{"none", "one", "two"}, titles("n"))
		assert.Equal(t, []string{"none", "one", "two"}, titles("status"))
	})

	t.Run("sorting on a reserved field", func(t *testing.T) {
		s := newStore(t)
		owner := newID()
		base := now()
		mustCreateTask(t, s, owner, map[string]any{"status": "b"}, base)
		mustCreateTask(t, s, owner, map[string]any{"status": "c"}, base.Add(time.Second))
		mustCreateTask(t, s, owner, map[string]any{"status": "a"}, base.Add(2*time.Second))

		tasks, _, err := s.List(ctx, mustQuery(t, owner, store.TaskListParams{OrderBy: "status"}))
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{tasks[0].Status, tasks[1].Status, tasks[2].Status})

		tasks, _, err = s.List(ctx, mustQuery(t, owner, store.TaskListParams{OrderBy: "createdAt"}))
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"b", "c", "a"}, []string{tasks[0].Status, tasks[1].Status, tasks[2].Status})
	})

	t.Run("update merges fields and refreshes updatedAt", func(t *testing.T) {
		s := newStore(t)
		owner, newOwner := newID(), newID()
		created := mustCreateTask(t, s, owner,
			map[string]any{"title": "A", "notes": "keep", "status": "todo"}, now())

		later := created.CreatedAt.Add(time.Minute)
		upd, err := domain.NewTaskUpdate(map[string]any{
			"title":  "B",
			"status": "done",
			"owner":  newOwner,
		}, later)
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, upd)
		require.NoError(t, err)
		assert.Equal(t, "B", updated.Fields["title"])
		assert.Equal(t, "keep", updated.Fields["notes"])
		assert.Equal(t, "done", updated.Status)
		assert.Equal(t, newOwner, updated.OwnerID)

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Fields, got.Fields)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt), "createdAt is never rewritten")
	})

	t.Run("update can clear status", func(t *testing.T) {
		s := newStore(t)
		created := mustCreateTask(t, s, newID(), map[string]any{"status": "todo"}, now())

		upd, err := domain.NewTaskUpdate(map[string]any{"status": nil}, now())
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, upd)
		require.NoError(t, err)
		assert.Empty(t, updated.Status)
	})

	t.Run("update unknown task is not found", func(t *testing.T) {
		s := newStore(t)
		upd, err := domain.NewTaskUpdate(map[string]any{"title": "x"}, now())
		require.NoError(t, err)

		_, err = s.Update(ctx, newID(), upd)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("delete removes the task", func(t *testing.T) {
		s := newStore(t)
		created := mustCreateTask(t, s, newID(), map[string]any{"title": "gone"}, now())

		require.NoError(t, s.Delete(ctx, created.ID))

		_, err := s.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		assert.ErrorIs(t, s.Delete(ctx, created.ID), store.ErrTaskNotFound)
	})
}

// RunUserStoreTests exercises the UserStore contract. Emails are made unique
// per run so the suite can share a database with other tests.
func RunUserStoreTests(t *testing.T, newStore UserStoreFactory, newID func() string) {
	ctx := context.Background()
	email := func(name string) string {
		return fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	}

	t.Run("create assigns an id and hashes the password", func(t *testing.T) {
		s := newStore(t)
		user, err := domain.NewUser(email("Create"), "correct-horse")
		require.NoError(t, err)

		require.NoError(t, s.Create(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, user.HashedPassword)
		assert.NotEqual(t, "correct-horse", user.HashedPassword)

		byID, err := s.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
		assert.Equal(t, user.HashedPassword, byID.HashedPassword)

		byEmail, err := s.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		s := newStore(t)
		addr := email("dup")
		first, err := domain.NewUser(addr, "correct-horse")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, first))

		second, err := domain.NewUser(addr, "another-pass")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Create(ctx, second), store.ErrEmailExists)
	})

	t.Run("unknown users are not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(ctx, newID())
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		_, err = s.GetByEmail(ctx, email("nobody"))
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		assert.ErrorIs(t, s.Delete(ctx, newID()), store.ErrUserNotFound)
	})

	t.Run("update changes email and password", func(t *testing.T) {
		s := newStore(t)
		user, err := domain.NewUser(email("update"), "correct-horse")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, user))
		oldHash := user.HashedPassword

		user.Email = email("updated")
		user.Password = "battery-staple"
		require.NoError(t, s.Update(ctx, user))

		got, err := s.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.NotEqual(t, oldHash, got.HashedPassword)
	})

	t.Run("delete removes the user", func(t *testing.T) {
		s := newStore(t)
		user, err := domain.NewUser(email("delete"), "correct-horse")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, user))

		require.NoError(t, s.Delete(ctx, user.ID))
		_, err = s.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
