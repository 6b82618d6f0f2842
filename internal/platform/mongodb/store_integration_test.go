package mongodb_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/taskly-api/internal/platform/mongodb"
	"github.com/phrazzld/taskly-api/internal/store"
	"github.com/phrazzld/taskly-api/internal/store/storetest"
	"github.com/phrazzld/taskly-api/internal/testdb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	url, cleanup, err := testdb.MongoURL(ctx)
	defer cleanup()
	if err != nil && !errors.Is(err, testdb.ErrUnavailable) {
		fmt.Fprintf(os.Stderr, "mongodb test server: %v\n", err)
		return 1
	}

	if url != "" {
		dbName := fmt.Sprintf("taskly_test_%d", time.Now().UnixNano())
		client, db, err := mongodb.Connect(ctx, url, dbName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect mongodb: %v\n", err)
			return 1
		}
		defer func() {
			_ = db.Drop(context.Background())
			_ = client.Disconnect(context.Background())
		}()

		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "create indexes: %v\n", err)
			return 1
		}
		testDB = db
	}

	return m.Run()
}

func requireDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testDB == nil {
		t.Skip("no mongodb test server configured; set MONGO_URL or TASKLY_TESTCONTAINERS=1")
	}
	return testDB
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

func TestMongoTaskStore(t *testing.T) {
	storetest.RunTaskStoreTests(t,
		func(t *testing.T) store.TaskStore {
			return mongodb.NewMongoTaskStore(requireDB(t), nil)
		},
		newObjectID,
	)
}

func TestMongoUserStore(t *testing.T) {
	storetest.RunUserStoreTests(t,
		func(t *testing.T) store.UserStore {
			return mongodb.NewMongoUserStore(requireDB(t), bcrypt.MinCost, nil)
		},
		newObjectID,
	)
}

func TestEnsureIndexesIsIdempotent(t *testing.T) {
	db := requireDB(t)
	if err := mongodb.EnsureIndexes(context.Background(), db); err != nil {
		t.Fatalf("second EnsureIndexes call failed: %v", err)
	}
}
