package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/service/auth"
	"github.com/phrazzld/taskly-api/internal/store"
)

// Messages sent for the most common failures.
const (
	msgInternal        = "An unexpected error occurred"
	msgInvalidRequest  = "Invalid request format"
	msgTaskNotFound    = "Task not found"
	msgUserNotFound    = "User not found"
	msgInvalidCreds    = "Invalid credentials"
	msgForbidden       = "You can only access your own account"
	msgInvalidSort     = "Invalid orderBy field"
	msgEmailExists     = "Email already exists"
	msgInvalidToken    = "Invalid token"
	msgInvalidRefresh  = "Invalid refresh token"
	msgValidationError = "Validation error"
)

// errBadRequestBody marks request bodies that could not be decoded.
var errBadRequestBody = errors.New("bad request body")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. Anything unrecognized, including malformed
// identifiers, is a 500.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidSortField),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, errBadRequestBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes driver or infrastructure details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgInternal
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return msgInvalidToken

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return msgInvalidRefresh

	case errors.Is(err, domain.ErrUnauthorized):
		return msgForbidden

	case errors.Is(err, store.ErrTaskNotFound):
		return msgTaskNotFound

	case errors.Is(err, store.ErrUserNotFound):
		return msgUserNotFound

	case errors.Is(err, store.ErrEmailExists):
		return msgEmailExists

	case errors.Is(err, store.ErrInvalidSortField):
		return msgInvalidSort

	case errors.Is(err, errBadRequestBody):
		return msgInvalidRequest

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, domain.ErrValidation):
		return domainValidationMessage(err)

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return msgInternal
	}
}

// domainValidationMessage returns the message of the domain sentinel inside
// err, e.g. "task status must be a string". Domain messages are fixed strings
// and safe to show.
func domainValidationMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrEmptyEmail,
		domain.ErrInvalidEmail,
		domain.ErrEmptyPassword,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
		domain.ErrEmptyOwner,
		domain.ErrInvalidOwner,
		domain.ErrInvalidStatus,
		domain.ErrInvalidFieldName,
	} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(sentinel.Error(), domain.ErrValidation.Error()+": ")
		}
	}
	return msgValidationError
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field, e.g. "Invalid email: invalid email format".
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return msgValidationError
	}

	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError is the single path every handler failure goes through: it
// maps err to a status and safe message, logs the redacted error and writes
// the JSON error response.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, opts ...shared.ResponseOption) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
