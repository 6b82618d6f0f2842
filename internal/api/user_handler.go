package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/service"
)

// UserDeletedMessage confirms DELETE /users/{id}.
const UserDeletedMessage = "User has been deleted"

// UserHandler serves the /users routes. Every route acts on the caller's own
// account only.
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService: userService,
		logger:      logger.With(slog.String("component", "user_handler")),
	}
}

// GetUser handles GET /users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateUser handles PUT /users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), userID, service.UserUpdate{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteUser handles DELETE /users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UserDeletedMessage)
}

// ownAccount returns the path user ID when it matches the authenticated
// user, and writes a 401 or 403 otherwise.
func (h *UserHandler) ownAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := requireUserID(w, r)
	if !ok {
		return "", false
	}

	pathID := getPathID(r, "id")
	if pathID != callerID {
		HandleAPIError(w, r,
			fmt.Errorf("%w: user %s requested account %s", domain.ErrUnauthorized, callerID, pathID),
			shared.WithElevatedLogLevel())
		return "", false
	}
	return pathID, true
}
