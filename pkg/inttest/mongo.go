package inttest

import (
	"context"
	"testing"

	"github.com/gatherly/gatherly/pkg/storage"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupMongo creates a MongoDB container and returns a database with the indexes in place.
func SetupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate MongoDB")
	})
	require.NoError(t, err, "failed to start MongoDB")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get MongoDB connection string")

	client, db, err := storage.NewMongo(ctx, uri, "gatherly_test")
	require.NoError(t, err, "failed to connect to MongoDB")
	t.Cleanup(func() {
		require.NoError(t, client.Disconnect(context.Background()), "failed to disconnect from MongoDB")
	})

	return db
}
