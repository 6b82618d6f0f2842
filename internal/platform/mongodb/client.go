package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

// Connect opens a client for uri, verifies it with a ping bounded by a 5 second
// timeout and returns it together with the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = db.Collection(TasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("tasks_owner_status"),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("tasks_owner_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks indexes: %w", err)
	}
	return nil
}
