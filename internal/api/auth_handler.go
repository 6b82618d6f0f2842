package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskly-api/internal/api/shared"
	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/service"
	"github.com/phrazzld/taskly-api/internal/service/auth"
	"github.com/phrazzld/taskly-api/internal/store"
)

// errInvalidCredentials is reported for unknown emails and wrong passwords alike.
var errInvalidCredentials = errors.New("invalid credentials")

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       config.AuthConfig
	logger           *slog.Logger
	timeFunc         func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		logger:           logger.With(slog.String("component", "auth_handler")),
		timeFunc:         time.Now,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	resp, ok := h.issueTokens(w, r, user.ID)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.userService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.rejectCredentials(w, r, err)
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		h.rejectCredentials(w, r, err)
		return
	}

	resp, ok := h.issueTokens(w, r, user.ID)
	if !ok {
		return
	}
	log.Info("user logged in", slog.String("user_id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RefreshToken handles POST /auth/refresh. A valid refresh token for an
// existing user is exchanged for a new access and refresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, shared.WithElevatedLogLevel())
		return
	}

	if _, err := h.userService.GetUser(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			HandleAPIError(w, r, errors.Join(auth.ErrInvalidRefreshToken, err))
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	resp, ok := h.issueTokens(w, r, claims.UserID)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	})
}

// Logout handles POST /auth/logout by expiring the access token cookie.
// Tokens are stateless, so a bearer token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     shared.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.authConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// issueTokens generates a token pair for userID and sets the access token
// cookie. On failure it writes a 500 and returns false.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, userID string) (AuthResponse, bool) {
	expiresAt := h.timeFunc().Add(time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute)

	token, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return AuthResponse{}, false
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return AuthResponse{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     shared.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.authConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return AuthResponse{
		UserID:       userID,
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.UTC().Format(time.RFC3339),
	}, true
}

func (h *AuthHandler) rejectCredentials(w http.ResponseWriter, r *http.Request, cause error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, msgInvalidCreds,
		errors.Join(errInvalidCredentials, cause), shared.WithElevatedLogLevel())
}
