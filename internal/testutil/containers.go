// Package testutil provides Redis connections for integration tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/prefeitura-rio/app-callback/internal/redisclient"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisTestClient returns a traced client for integration tests and a
// cleanup func. Tests must use unique keys. REDIS_ADDR points at an existing server; otherwise a
// throwaway container is started when RUN_CONTAINER_TESTS=1. The test is
// skipped when neither is available.
func RedisTestClient(t *testing.T) (*redisclient.Client, func()) {
	t.Helper()
	ctx := context.Background()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		raw := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		client := redisclient.NewClient(raw)
		require.NoError(t, client.Ping(ctx).Err(), "Failed to connect to Redis")
		return client, func() { _ = client.Close() }
	}

	if os.Getenv("RUN_CONTAINER_TESTS") != "1" {
		t.Skip("Skipping Redis integration tests: set REDIS_ADDR or RUN_CONTAINER_TESTS=1")
	}

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "Failed to start Redis container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get Redis connection string")

	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err, "Failed to parse Redis connection string")

	client := redisclient.NewClient(goredis.NewClient(opts))
	require.NoError(t, client.Ping(ctx).Err(), "Failed to ping Redis")

	return client, func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
}
