package store

import (
	"context"

	"github.com/phrazzld/taskly-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create assigns a new identifier to user and saves it. Returns
	// ErrEmailExists if the email is taken, or a validation error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by identifier, or ErrUserNotFound.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email, or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update saves email and, when user.Password is set, a new password hash.
	// Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user, or returns ErrUserNotFound.
	Delete(ctx context.Context, id string) error
}
