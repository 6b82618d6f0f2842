package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey           []byte
	tokenLifetime        time.Duration    // Access token lifetime
	refreshTokenLifetime time.Duration    // Refresh token lifetime
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed time difference when validating time claims
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// tokenErrors maps parser failures to the errors returned for one token type.
type tokenErrors struct {
	invalid, expired, notYetValid error
}

var (
	accessTokenErrors  = tokenErrors{ErrInvalidToken, ErrExpiredToken, ErrTokenNotYetValid}
	refreshTokenErrors = tokenErrors{ErrInvalidRefreshToken, ErrExpiredRefreshToken, ErrInvalidRefreshToken}
)

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:           []byte(cfg.JWTSecret),
		tokenLifetime:        time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute,
	}, nil
}

// NewTestJWTService creates a JWT service with an injected clock and no
// clock skew, for deterministic expiry tests.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        lifetime,
		refreshTokenLifetime: 7 * 24 * time.Hour,
		timeFunc:             timeFunc,
	}
}

// GenerateToken creates a signed JWT access token with user claims.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID string) (string, error) {
	return s.sign(ctx, userID, TokenTypeAccess, s.timeFunc().Add(s.tokenLifetime))
}

// GenerateRefreshToken creates a signed JWT refresh token with user claims.
func (s *hmacJWTService) GenerateRefreshToken(ctx context.Context, userID string) (string, error) {
	return s.sign(ctx, userID, TokenTypeRefresh, s.timeFunc().Add(s.refreshTokenLifetime))
}

// ValidateToken validates a JWT access token and returns the claims if valid.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeAccess, accessTokenErrors)
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if valid.
func (s *hmacJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeRefresh, refreshTokenErrors)
}

func (s *hmacJWTService) sign(ctx context.Context, userID, tokenType string, expiresAt time.Time) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := jwtCustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

func (s *hmacJWTService) validate(
	ctx context.Context,
	tokenString, wantType string,
	errs tokenErrors,
) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired", "error", err, "token_type", wantType)
			return nil, errs.expired
		case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
			log.Debug("token validation failed: token not yet valid", "error", err, "token_type", wantType)
			return nil, errs.notYetValid
		default:
			log.Debug("token validation failed",
				"error", err,
				"token_type", wantType,
				"error_type", fmt.Sprintf("%T", err))
			return nil, errs.invalid
		}
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		log.Debug("token validation failed: invalid claims", "token_type", wantType)
		return nil, errs.invalid
	}
	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	log.Debug("token validated successfully",
		"user_id", claims.UserID,
		"token_type", wantType,
		"token_id", claims.ID,
		"expiry", claims.ExpiresAt.Time)

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}
