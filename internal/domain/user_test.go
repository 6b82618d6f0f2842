package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("  Jane@Example.COM ", "correct-horse")

	require.NoError(t, err)
	assert.Empty(t, user.ID, "the store assigns identifiers")
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "correct-horse", user.Password)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"empty email", "", "correct-horse", ErrEmptyEmail},
		{"invalid email", "not-an-email", "correct-horse", ErrInvalidEmail},
		{"empty password", "a@b.co", "", ErrEmptyPassword},
		{"short password", "a@b.co", "short", ErrPasswordTooShort},
		{"long password", "a@b.co", strings.Repeat("x", MaxPasswordLength+1), ErrPasswordTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, err := NewUser(tc.email, tc.password)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserValidateWithHash(t *testing.T) {
	u := &User{Email: "a@b.co", HashedPassword: "$2a$10$hash"}
	assert.NoError(t, u.Validate())

	u.HashedPassword = ""
	assert.ErrorIs(t, u.Validate(), ErrEmptyPassword)
}
