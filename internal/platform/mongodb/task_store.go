package mongodb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTaskStore implements the store.TaskStore interface on a MongoDB collection.
type MongoTaskStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoTaskStore creates a task store on the tasks collection of db.
// If logger is nil, a default logger will be used.
func NewMongoTaskStore(db *mongo.Database, logger *slog.Logger) *MongoTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTaskStore{
		coll:   db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure MongoTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*MongoTaskStore)(nil)

// List implements store.TaskStore.List
func (s *MongoTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := taskFilter(q)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions(q))
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("owner_id", q.OwnerID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "list", MapError(err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	tasks := make([]*domain.Task, 0, q.Limit)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, store.NewStoreError("task", "list", err)
		}
		task, err := taskFromDocument(doc)
		if err != nil {
			return nil, 0, store.NewStoreError("task", "list", err)
		}
		tasks = append(tasks, task)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, store.NewStoreError("task", "list", MapError(err))
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		log.Error("failed to count tasks",
			slog.String("owner_id", q.OwnerID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "count", MapError(err))
	}

	log.Debug("tasks listed",
		slog.String("owner_id", q.OwnerID),
		slog.Int("returned", len(tasks)),
		slog.Int64("total", total))
	return tasks, total, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *MongoTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := s.coll.FindOne(ctx, bson.M{domain.FieldID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("task_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", MapError(err))
	}

	task, err := taskFromDocument(doc)
	if err != nil {
		return nil, store.NewStoreError("task", "get", err)
	}
	return task, nil
}

// Create implements store.TaskStore.Create
func (s *MongoTaskStore) Create(ctx context.Context, task *domain.Task) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ownerID, err := parseID(task.OwnerID)
	if err != nil {
		return "", err
	}

	result, err := s.coll.InsertOne(ctx, taskDocument(primitive.NewObjectID(), ownerID, task))
	if err != nil {
		log.Error("failed to create task",
			slog.String("owner_id", task.OwnerID),
			slog.String("error", err.Error()))
		return "", store.NewStoreError("task", "create", MapError(err))
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok || oid.IsZero() {
		return "", store.NewStoreError("task", "create", errors.New("insert returned no identifier"))
	}

	task.ID = oid.Hex()
	log.Info("task created", slog.String("task_id", task.ID), slog.String("owner_id", task.OwnerID))
	return task.ID, nil
}

// Update implements store.TaskStore.Update
func (s *MongoTaskStore) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	update, err := taskUpdateDocument(upd)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{domain.FieldID: oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Debug("task to update not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task", slog.String("task_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "update", MapError(err))
	}

	task, err := taskFromDocument(doc)
	if err != nil {
		return nil, store.NewStoreError("task", "update", err)
	}

	log.Info("task updated", slog.String("task_id", id))
	return task, nil
}

// Delete implements store.TaskStore.Delete
func (s *MongoTaskStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{domain.FieldID: oid})
	if err != nil {
		log.Error("failed to delete task", slog.String("task_id", id), slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", MapError(err))
	}
	if result.DeletedCount == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task deleted", slog.String("task_id", id))
	return nil
}
