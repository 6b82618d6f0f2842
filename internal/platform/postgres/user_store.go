package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db         DBTX
	bcryptCost int
	logger     *slog.Logger
}

// NewPostgresUserStore creates a user store on db. Plaintext passwords are
// hashed with bcrypt at bcryptCost before they are written.
func NewPostgresUserStore(db DBTX, bcryptCost int, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, user.Email, string(hash), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered", slog.String("email", user.Email))
			return store.ErrEmailExists
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return store.NewStoreError("user", "create", MapError(err))
	}

	user.ID = id.String()
	user.HashedPassword = string(hash)
	user.Password = ""

	log.Info("user created", slog.String("user_id", user.ID))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return s.getOne(ctx, "id", userID)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email", domain.NormalizeEmail(email))
}

func (s *PostgresUserStore) getOne(ctx context.Context, column string, value any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, email, hashed_password, created_at, updated_at FROM users WHERE ` +
		column + ` = $1`

	var user domain.User
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&id,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("by", column), slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "get", MapError(err))
	}

	user.ID = id.String()
	return &user, nil
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidID, user.ID)
	}

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}

	if user.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hash)
		user.Password = ""
	}
	user.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = $1, hashed_password = $2, updated_at = $3
		WHERE id = $4`,
		user.Email, user.HashedPassword, user.UpdatedAt, userID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return store.NewStoreError("user", "update", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user updated", slog.String("user_id", user.ID))
	return nil
}

// Delete implements store.UserStore.Delete
func (s *PostgresUserStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		log.Error("failed to delete user", slog.String("user_id", id), slog.String("error", err.Error()))
		return store.NewStoreError("user", "delete", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user deleted", slog.String("user_id", id))
	return nil
}
