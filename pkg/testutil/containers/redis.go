//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const defaultRedisImage = "redis:7-alpine"

// Redis is a running container plus a connected client. Both are torn down
// when the test that started them finishes.
type Redis struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// StartRedis runs a Redis container for t. REDIS_TEST_IMAGE overrides the image.
func StartRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	image := os.Getenv("REDIS_TEST_IMAGE")
	if image == "" {
		image = defaultRedisImage
	}
	container, err := tcredis.Run(ctx, image)
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err, "redis connection string")
	opts, err := redis.ParseURL(url)
	require.NoError(t, err, "parse redis url")

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err(), "ping redis")

	return &Redis{Container: container, URL: url, Client: client}
}

// Flush empties the database between cases.
func (r *Redis) Flush(t *testing.T) {
	t.Helper()
	require.NoError(t, r.Client.FlushDB(context.Background()).Err())
}
