package auth

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskly-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
	testUserID  = "5f1c2b7e9d3a4c0012345678"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	})
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), testUserID)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tokenLifetime := 60 * time.Minute
	svc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	tokenLifetime := 60 * time.Minute

	tests := []struct {
		name      string
		setupFunc func() (JWTService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func() (JWTService, string) {
				svc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := svc.GenerateToken(context.Background(), testUserID)
				return svc, token
			},
		},
		{
			name: "expired token",
			setupFunc: func() (JWTService, string) {
				genSvc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := genSvc.GenerateToken(context.Background(), testUserID)

				valSvc := NewTestJWTService(testSecret, tokenLifetime,
					fixedClock(fixedTime.Add(tokenLifetime+time.Hour)))
				return valSvc, token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "issued in the future",
			setupFunc: func() (JWTService, string) {
				genSvc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := genSvc.GenerateToken(context.Background(), testUserID)

				valSvc := NewTestJWTService(testSecret, tokenLifetime,
					fixedClock(fixedTime.Add(-time.Hour)))
				return valSvc, token
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			setupFunc: func() (JWTService, string) {
				genSvc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := genSvc.GenerateToken(context.Background(), testUserID)

				valSvc := NewTestJWTService(wrongSecret, tokenLifetime, fixedClock(fixedTime))
				return valSvc, token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func() (JWTService, string) {
				svc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				return svc, "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token used as access token",
			setupFunc: func() (JWTService, string) {
				svc := NewTestJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))
				token, _ := svc.GenerateRefreshToken(context.Background(), testUserID)
				return svc, token
			},
			wantErr: ErrWrongTokenType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setupFunc()
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testUserID, claims.UserID)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	t.Parallel()

	svc := NewTestJWTService(testSecret, time.Hour, fixedClock(fixedTime))
	ctx := context.Background()

	refresh, err := svc.GenerateRefreshToken(ctx, testUserID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	access, err := svc.GenerateToken(ctx, testUserID)
	require.NoError(t, err)
	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	later := NewTestJWTService(testSecret, time.Hour, fixedClock(fixedTime.Add(8*24*time.Hour)))
	_, err = later.ValidateRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.NoError(t, v.Compare(string(hash), "password123"))
	assert.Error(t, v.Compare(string(hash), "password124"))
}
