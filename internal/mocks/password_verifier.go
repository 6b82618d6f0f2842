package mocks

import (
	"errors"

	"github.com/phrazzld/taskly-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by MockPasswordVerifier when a comparison fails.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
type MockPasswordVerifier struct {
	// ShouldSucceed makes Compare accept any password.
	ShouldSucceed bool

	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Compare implements the auth.PasswordVerifier interface. Without CompareFn
// or ShouldSucceed it accepts password when hashedPassword is "hashed:"+password,
// the format MockUserStore stores.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed || hashedPassword == "hashed:"+password {
		return nil
	}
	return ErrPasswordMismatch
}
