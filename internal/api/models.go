package api

import (
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for register and login.
type AuthResponse struct {
	UserID string `json:"user_id"`

	// AccessToken is the JWT used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the RFC 3339 time at which the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// MessageResponse is a response that only carries a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateUserRequest defines the payload for PUT /users/{id}. Omitted fields
// are left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskListResponse is the body of GET /tasks/by-user/{id}.
type TaskListResponse struct {
	Tasks     []*domain.Task `json:"tasks"`
	TaskCount int64          `json:"taskCount"`
}

// TaskCreatedResponse is the body of POST /tasks.
type TaskCreatedResponse struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
