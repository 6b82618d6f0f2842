package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskly-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskly-api/internal/api/middleware"
	"github.com/phrazzld/taskly-api/internal/api/shared"
)

// healthCheckTimeout bounds the storage ping behind GET /health.
const healthCheckTimeout = 2 * time.Second

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{apiMiddleware.TraceIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
		app.config.Auth,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api/v1", func(r chi.Router) {
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
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, api.MessageResponse{Message: "Welcome to Taskly API"})
	})
	r.Get("/health", app.handleHealth)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// handleHealth reports 200 "OK" when storage answers a ping, 503 otherwise.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := app.storage.ping(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "storage unavailable", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
