package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
)

// UserService provides account operations.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser registers a user with the given email and password
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)

	// UpdateUser changes the email and/or password of an existing user and
	// returns the stored result.
	UpdateUser(ctx context.Context, userID string, upd UserUpdate) (*domain.User, error)

	// DeleteUser deletes a user by their ID
	DeleteUser(ctx context.Context, userID string) error
}

// UserUpdate holds the account fields a user may change. Nil means unchanged.
type UserUpdate struct {
	Email    *string
	Password *string
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logLookupError("failed to retrieve user", err, "user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	s.logger.Debug("retrieved user successfully", "user_id", userID)
	return user, nil
}

// GetUserByEmail retrieves a user by their email address
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		s.logLookupError("failed to retrieve user by email", err, "email", email)
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	return user, nil
}

// CreateUser validates the input and saves a new user. The store hashes the password.
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Debug("invalid registration data", "error", err, "email", email)
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email", "email", user.Email)
		} else {
			s.logger.Error("failed to save user", "error", err, "email", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created successfully", "user_id", user.ID)
	return user, nil
}

// UpdateUser retrieves the complete user first, changes only the requested
// fields and passes the whole object back to the store.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logLookupError("failed to retrieve user for update", err, "user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user for update: %w", err)
	}

	if upd.Email != nil {
		user.Email = domain.NormalizeEmail(*upd.Email)
	}
	if upd.Password != nil {
		if err := domain.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		user.Password = *upd.Password
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to update to an existing email", "user_id", userID)
		} else {
			s.logLookupError("failed to update user", err, "user_id", userID)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.Password = ""

	s.logger.Info("user updated successfully",
		"user_id", userID,
		"email_changed", upd.Email != nil,
		"password_changed", upd.Password != nil)
	return user, nil
}

// DeleteUser deletes a user by their ID
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userStore.Delete(ctx, userID); err != nil {
		s.logLookupError("failed to delete user", err, "user_id", userID)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted successfully", "user_id", userID)
	return nil
}

func (s *UserServiceImpl) logLookupError(msg string, err error, key, value string) {
	if errors.Is(err, store.ErrUserNotFound) {
		s.logger.Debug(msg, "error", err, key, value)
		return
	}
	s.logger.Error(msg, "error", err, key, value)
}
