package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Email          string             `bson:"email"`
	HashedPassword string             `bson:"hashedPassword"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// MongoUserStore implements the store.UserStore interface on a MongoDB collection.
type MongoUserStore struct {
	coll       *mongo.Collection
	bcryptCost int
	logger     *slog.Logger
}

// NewMongoUserStore creates a user store on the users collection of db.
// Plaintext passwords are hashed with bcrypt at bcryptCost before they are written.
func NewMongoUserStore(db *mongo.Database, bcryptCost int, logger *slog.Logger) *MongoUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoUserStore{
		coll:       db.Collection(UsersCollection),
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

// Ensure MongoUserStore implements store.UserStore interface
var _ store.UserStore = (*MongoUserStore)(nil)

// Create implements store.UserStore.Create
func (s *MongoUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	doc := userDocument{
		ID:             primitive.NewObjectID(),
		Email:          user.Email,
		HashedPassword: string(hash),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Debug("email already registered", slog.String("email", user.Email))
			return store.ErrEmailExists
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return store.NewStoreError("user", "create", MapError(err))
	}

	user.ID = doc.ID.Hex()
	user.HashedPassword = doc.HashedPassword
	user.Password = ""

	log.Info("user created", slog.String("user_id", user.ID))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "get", MapError(err))
	}
	return doc.toDomain(), nil
}

// Update implements store.UserStore.Update
func (s *MongoUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := parseID(user.ID)
	if err != nil {
		return err
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

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"email":          user.Email,
		"hashedPassword": user.HashedPassword,
		"updatedAt":      user.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return store.NewStoreError("user", "update", MapError(err))
	}
	if result.MatchedCount == 0 {
		return store.ErrUserNotFound
	}

	log.Info("user updated", slog.String("user_id", user.ID))
	return nil
}

// Delete implements store.UserStore.Delete
func (s *MongoUserStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		log.Error("failed to delete user", slog.String("user_id", id), slog.String("error", err.Error()))
		return store.NewStoreError("user", "delete", MapError(err))
	}
	if result.DeletedCount == 0 {
		return store.ErrUserNotFound
	}

	log.Info("user deleted", slog.String("user_id", id))
	return nil
}
