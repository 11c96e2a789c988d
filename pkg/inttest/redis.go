package inttest

import (
	"context"
	"testing"

	"github.com/gatherly/gatherly/pkg/storage"
	goRedis "github.com/go-redis/redis"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

func SetupRedis(t *testing.T) *goRedis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7")
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate Redis")
	})
	require.NoError(t, err, "failed to start Redis")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get Redis endpoint")

	client, err := storage.NewRedis(endpoint)
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() {
		require.NoError(t, client.Close(), "failed to close Redis client")
	})

	return client
}
