package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_GetUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.users.AddUser(&domain.User{Email: "user@example.com", HashedPassword: "hashed:password123"})
	other := env.users.AddUser(&domain.User{Email: "other@example.com", HashedPassword: "hashed:password123"})

	w := env.do(t, http.MethodGet, "/users/"+user.ID, user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, user.ID, got["id"])
	assert.Equal(t, "user@example.com", got["email"])
	assert.NotContains(t, w.Body.String(), "hashed")

	w = env.do(t, http.MethodGet, "/users/"+other.ID, user.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/users/"+user.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_GetDeletedAccount(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/users/gone", "gone", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", errorMessage(t, w))
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.users.AddUser(&domain.User{Email: "user@example.com", HashedPassword: "hashed:password123"})
	env.users.AddUser(&domain.User{Email: "taken@example.com", HashedPassword: "hashed:password123"})

	w := env.do(t, http.MethodPut, "/users/"+user.ID, user.ID, map[string]string{
		"email":    "new@example.com",
		"password": "new-password-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "new@example.com", decodeBody[UserResponse](t, w).Email)

	stored, err := env.users.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed:new-password-1", stored.HashedPassword)

	w = env.do(t, http.MethodPut, "/users/"+user.ID, user.ID, map[string]string{"email": "taken@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/users/"+user.ID, user.ID, map[string]string{"email": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/users/"+user.ID, "someone-else", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.users.AddUser(&domain.User{Email: "user@example.com", HashedPassword: "hashed:password123"})

	w := env.do(t, http.MethodDelete, "/users/"+user.ID, user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"User has been deleted"`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/users/"+user.ID, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
