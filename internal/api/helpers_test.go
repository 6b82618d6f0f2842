package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskly-api/internal/api/middleware"
	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/phrazzld/taskly-api/internal/mocks"
	"github.com/phrazzld/taskly-api/internal/service"
	"github.com/phrazzld/taskly-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// testEnv wires the handlers over in-memory stores. Access tokens are
// "access:<userID>" and refresh tokens "refresh:<userID>".
type testEnv struct {
	router    http.Handler
	tasks     *mocks.MockTaskStore
	users     *mocks.MockUserStore
	jwt       *mocks.MockJWTService
	verifier  *mocks.MockPasswordVerifier
	authCfg   config.AuthConfig
	fixedTime time.Time
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tasks:     mocks.NewMockTaskStore(),
		users:     mocks.NewMockUserStore(),
		verifier:  &mocks.MockPasswordVerifier{},
		fixedTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		authCfg: config.AuthConfig{
			JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
			CookieSecure:                true,
		},
	}
	env.jwt = &mocks.MockJWTService{
		GenerateTokenFn: func(ctx context.Context, userID string) (string, error) {
			return "access:" + userID, nil
		},
		GenerateRefreshTokenFn: func(ctx context.Context, userID string) (string, error) {
			return "refresh:" + userID, nil
		},
		ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			if userID, ok := strings.CutPrefix(token, "access:"); ok && userID != "" {
				return &auth.Claims{UserID: userID, TokenType: auth.TokenTypeAccess}, nil
			}
			return nil, auth.ErrInvalidToken
		},
		ValidateRefreshTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			if userID, ok := strings.CutPrefix(token, "refresh:"); ok && userID != "" {
				return &auth.Claims{UserID: userID, TokenType: auth.TokenTypeRefresh}, nil
			}
			if strings.HasPrefix(token, "access:") {
				return nil, auth.ErrWrongTokenType
			}
			return nil, auth.ErrInvalidRefreshToken
		},
	}

	log := quietLogger()
	userService := service.NewUserService(env.users, log)
	taskService := service.NewTaskService(env.tasks, log, service.WithClock(func() time.Time { return env.fixedTime }))

	authHandler := NewAuthHandler(userService, env.jwt, env.verifier, env.authCfg, log)
	authHandler.timeFunc = func() time.Time { return env.fixedTime }
	taskHandler := NewTaskHandler(taskService, log)
	userHandler := NewUserHandler(userService, log)
	authMiddleware := middleware.NewAuthMiddleware(env.jwt)

	r := chi.NewRouter()
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.RefreshToken)
	r.Post("/auth/logout", authHandler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/tasks/by-user/{id}", taskHandler.ListTasks)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}", userHandler.UpdateUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
	})
	env.router = r
	return env
}

// do sends a request as userID ("" for anonymous) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer access:"+userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, w)["message"].(string)
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
