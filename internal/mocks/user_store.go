package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements store.UserStore for testing. Without function
// fields it behaves like an in-memory store keyed by email.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id string) error

	mu          sync.Mutex
	Users       map[string]*domain.User
	LastUserID  string
	CreateError error
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users: make(map[string]*domain.User),
	}
}

// AddUser stores user directly, assigning an ID when it has none.
func (m *MockUserStore) AddUser(user *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.Users[user.Email] = user
	return user
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if m.CreateError != nil {
		return m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Users[user.Email]; exists {
		return store.ErrEmailExists
	}

	user.ID = uuid.NewString()
	if user.Password != "" {
		user.HashedPassword = "hashed:" + user.Password
		user.Password = ""
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	m.Users[user.Email] = user
	m.LastUserID = user.ID
	return nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.Users[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if user.ID == id {
			return copyUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for email, existing := range m.Users {
		if existing.ID != user.ID {
			continue
		}
		if email != user.Email {
			if _, taken := m.Users[user.Email]; taken {
				return store.ErrEmailExists
			}
			delete(m.Users, email)
		}
		if user.Password != "" {
			user.HashedPassword = "hashed:" + user.Password
			user.Password = ""
		}
		user.UpdatedAt = time.Now().UTC()
		m.Users[user.Email] = user
		return nil
	}
	return store.ErrUserNotFound
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for email, user := range m.Users {
		if user.ID == id {
			delete(m.Users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

// copyUser keeps callers from mutating stored users without calling Update.
func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

// TestifyMockUserStore is a mock of store.UserStore for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *TestifyMockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByEmail is a mock implementation of store.UserStore.GetByEmail
func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// Update is a mock implementation of store.UserStore.Update
func (m *TestifyMockUserStore) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// Delete is a mock implementation of store.UserStore.Delete
func (m *TestifyMockUserStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
