package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore implements store.TaskStore for testing. Without function
// fields it keeps tasks in memory and honors the query's filter, sort and
// paging the way the real stores do.
type MockTaskStore struct {
	ListFn    func(ctx context.Context, q store.TaskQuery) ([]*domain.Task, int64, error)
	GetByIDFn func(ctx context.Context, id string) (*domain.Task, error)
	CreateFn  func(ctx context.Context, task *domain.Task) (string, error)
	UpdateFn  func(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error)
	DeleteFn  func(ctx context.Context, id string) error

	mu    sync.Mutex
	Tasks map[string]*domain.Task
	order []string
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty in-memory task store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{Tasks: make(map[string]*domain.Task)}
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Task
	for _, id := range m.order {
		task := m.Tasks[id]
		if task.OwnerID != q.OwnerID {
			continue
		}
		if q.Status != "" && task.Status != q.Status {
			continue
		}
		matched = append(matched, cloneTask(task))
	}

	if path := q.SortPath(); path != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			return sortKey(matched[i], path) < sortKey(matched[j], path)
		})
	}

	total := int64(len(matched))
	start := min(max(q.Skip, 0), total)
	end := total
	if q.Limit > 0 && q.Limit <= total-start {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) (string, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task.ID = uuid.NewString()
	m.Tasks[task.ID] = cloneTask(task)
	m.order = append(m.order, task.ID)
	return task.ID, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, upd)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	task.Apply(upd)
	return cloneTask(task), nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Fields = make(map[string]any, len(t.Fields))
	for k, v := range t.Fields {
		c.Fields[k] = v
	}
	return &c
}

// sortKey renders the sort value as a string. Good enough for tests that
// sort on strings or single-digit numbers.
func sortKey(t *domain.Task, path []string) string {
	if len(path) == 1 {
		switch path[0] {
		case domain.FieldID:
			return t.ID
		case domain.FieldOwner:
			return t.OwnerID
		case domain.FieldStatus:
			return t.Status
		case domain.FieldCreatedAt:
			return t.CreatedAt.Format("2006-01-02T15:04:05.000000000")
		case domain.FieldUpdatedAt:
			return t.UpdatedAt.Format("2006-01-02T15:04:05.000000000")
		}
	}

	var cur any = t.Fields
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	if cur == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cur))
}

// TestifyMockTaskStore is a mock of store.TaskStore for use with testify/mock
type TestifyMockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*TestifyMockTaskStore)(nil)

// List is a mock implementation of store.TaskStore.List
func (m *TestifyMockTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, int64, error) {
	args := m.Called(ctx, q)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Get(1).(int64), args.Error(2)
}

// GetByID is a mock implementation of store.TaskStore.GetByID
func (m *TestifyMockTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.TaskStore.Create
func (m *TestifyMockTaskStore) Create(ctx context.Context, task *domain.Task) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

// Update is a mock implementation of store.TaskStore.Update
func (m *TestifyMockTaskStore) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	args := m.Called(ctx, id, upd)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete is a mock implementation of store.TaskStore.Delete
func (m *TestifyMockTaskStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
