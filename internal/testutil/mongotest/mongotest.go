// Package mongotest connects repository tests to a real MongoDB. Tests
// are skipped unless MONGO_TEST_URI is set.
package mongotest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	mongoMigration "birshibpur/internal/migrations/mongo"
	"birshibpur/pkg/client"
	"birshibpur/pkg/config"
	"birshibpur/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvMongoTestURI   = "MONGO_TEST_URI"
	ConnectionTimeout = 10 * time.Second
)

// Config returns a config bound to a fresh, migrated database that is
// dropped when the test ends.
func Config(t *testing.T) *config.Config {
	t.Helper()

	uri := lookupURI(t)
	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := "birshibpur_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	log := logger.Discard()
	if err := mongoMigration.RunMigration(ctx, mc, dbName, log); err != nil {
		t.Fatalf("failed to migrate %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", dbName, err)
		}
		if err := mc.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect from MongoDB: %v", err)
		}
	})

	c := client.NewClient()
	c.Mongo = mc
	return &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Location:          time.UTC,
		Log:               log,
		Client:            c,
	}
}

// CountDocuments returns the number of documents in a collection.
func CountDocuments(t *testing.T, cfg *config.Config, collection string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collection, err)
	}
	return n
}

func lookupURI(t *testing.T) string {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv(EnvMongoTestURI))
	if uri == "" {
		t.Skipf("%s not set, skipping MongoDB test", EnvMongoTestURI)
	}
	return uri
}
