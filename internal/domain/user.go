package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Password length bounds. 72 bytes is the most bcrypt will look at.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var validate = validator.New()

// User represents a registered Taskly account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // plaintext, only set while registering or changing the password
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a validated user with the given email and plaintext password.
// The ID is left empty for the store to assign; the caller hashes the password
// before persisting.
func NewUser(email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		Email:     NormalizeEmail(email),
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the email and, when present, the plaintext password. A user
// without a plaintext password must already carry a hash.
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if err := validate.Var(u.Email, "email"); err != nil {
		return ErrInvalidEmail
	}

	if u.Password == "" {
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
		return nil
	}
	return ValidatePassword(u.Password)
}

// ValidatePassword enforces the password length bounds.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
