package auth

import (
	"context"
	"time"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the user.
	GenerateToken(ctx context.Context, userID string) (string, error)

	// ValidateToken validates an access token and extracts its claims.
	// Returns ErrExpiredToken, ErrInvalidToken or ErrWrongTokenType on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed JWT refresh token for the user.
	// Refresh tokens live longer and can only be exchanged for a new token pair.
	GenerateRefreshToken(ctx context.Context, userID string) (string, error)

	// ValidateRefreshToken validates a refresh token and extracts its claims.
	// Returns ErrExpiredRefreshToken, ErrInvalidRefreshToken or ErrWrongTokenType on failure.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	// UserID is the identifier of the user the token was issued for.
	UserID string `json:"uid,omitempty"`

	// TokenType is TokenTypeAccess or TokenTypeRefresh.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
