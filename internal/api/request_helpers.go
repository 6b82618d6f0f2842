package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/service/auth"
)

// getPathID returns the named chi path parameter. Identifiers are opaque
// here; the store decides whether they are well formed.
func getPathID(r *http.Request, paramName string) string {
	return chi.URLParam(r, paramName)
}

// requireUserID returns the authenticated user's ID. When there is none it
// writes a 401 and returns false.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContext(r.Context()).Warn("user ID not found in request context")
		HandleAPIError(w, r, auth.ErrMissingToken)
		return "", false
	}
	return userID, true
}

// decodeRequest decodes and validates a typed request body, writing a 400 on
// failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", errBadRequestBody, err))
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	return true
}

// decodeDocument decodes a body that must be a JSON object with arbitrary
// keys, such as a task.
func decodeDocument(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := shared.DecodeDocument(r)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid document body",
			slog.String("path", r.URL.Path))
		HandleAPIError(w, r, fmt.Errorf("%w: %w", errBadRequestBody, err))
		return nil, false
	}
	if body == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: body must be a JSON object", errBadRequestBody))
		return nil, false
	}
	return body, true
}
